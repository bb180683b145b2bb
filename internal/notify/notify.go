// Package notify delivers approved matches to the client by email and
// WhatsApp. Only results a reviewer approved are ever sent.
package notify

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/homematch/internal/config"
	"github.com/sells-group/homematch/internal/model"
	"github.com/sells-group/homematch/pkg/resend"
)

// Store is the persistence surface notification needs.
type Store interface {
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	GetRequirementByTranscript(ctx context.Context, transcriptID string) (*model.Requirement, error)
	ListRankedResults(ctx context.Context, runID string) ([]model.RankedResult, error)
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	MarkSent(ctx context.Context, runID string, resultIDs []string) error
	CompleteStage(ctx context.Context, runID string, stage model.Stage) error
}

// Mailer sends one email.
type Mailer interface {
	Send(ctx context.Context, email resend.Email) (string, error)
}

// Messenger sends one WhatsApp message.
type Messenger interface {
	SendWhatsApp(ctx context.Context, to, body string) (string, error)
}

// Match pairs a ranked result with its listing for rendering.
type Match struct {
	Result  model.RankedResult
	Listing model.Listing
}

// Report summarizes one delivery.
type Report struct {
	RunID     string   `json:"run_id"`
	Channel   string   `json:"channel"`
	MessageID string   `json:"message_id"`
	ResultIDs []string `json:"result_ids"`
}

// Service sends match digests.
type Service struct {
	store     Store
	mailer    Mailer
	messenger Messenger
	cfg       config.ResendConfig
}

// NewService builds a notify Service. Mailer and messenger may be nil when the
// corresponding channel is not configured.
func NewService(st Store, mailer Mailer, messenger Messenger, cfg config.ResendConfig) *Service {
	return &Service{store: st, mailer: mailer, messenger: messenger, cfg: cfg}
}

// SendEmail emails the approved matches of a run as an HTML digest, marks them
// sent, and stamps the send stage.
func (s *Service) SendEmail(ctx context.Context, runID, toEmail string) (*Report, error) {
	if s.mailer == nil {
		return nil, eris.New("notify: email channel not configured")
	}
	if toEmail == "" {
		toEmail = s.cfg.ToEmail
	}
	if toEmail == "" {
		return nil, eris.New("notify: no recipient email")
	}

	req, matches, err := s.approvedMatches(ctx, runID)
	if err != nil {
		return nil, err
	}

	msgID, err := s.mailer.Send(ctx, resend.Email{
		From:    s.cfg.FromEmail,
		To:      []string{toEmail},
		Subject: emailSubject(req.ClientName, len(matches)),
		HTML:    buildEmailHTML(req, matches),
	})
	if err != nil {
		return nil, eris.Wrap(err, "notify: send email")
	}

	return s.finish(ctx, runID, "email", msgID, matches)
}

// SendWhatsApp sends a text summary of the top approved matches, marks them
// sent, and stamps the send stage. At most five matches are included.
func (s *Service) SendWhatsApp(ctx context.Context, runID, toNumber string) (*Report, error) {
	if s.messenger == nil {
		return nil, eris.New("notify: whatsapp channel not configured")
	}
	if toNumber == "" {
		return nil, eris.New("notify: no recipient number")
	}

	req, matches, err := s.approvedMatches(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(matches) > 5 {
		matches = matches[:5]
	}

	msgID, err := s.messenger.SendWhatsApp(ctx, toNumber, buildWhatsAppSummary(req, matches))
	if err != nil {
		return nil, eris.Wrap(err, "notify: send whatsapp")
	}

	return s.finish(ctx, runID, "whatsapp", msgID, matches)
}

// approvedMatches loads the run's approved results in rank order together
// with their listings and the originating requirement.
func (s *Service) approvedMatches(ctx context.Context, runID string) (*model.Requirement, []Match, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	if run.CompletedAt(model.StageReview) == nil {
		return nil, nil, eris.Errorf("notify: run %s has not been reviewed", runID)
	}

	req, err := s.store.GetRequirementByTranscript(ctx, run.TranscriptID)
	if err != nil {
		return nil, nil, eris.Wrap(err, "notify: load requirement")
	}

	results, err := s.store.ListRankedResults(ctx, runID)
	if err != nil {
		return nil, nil, err
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		if r.Approved == nil || !*r.Approved {
			continue
		}
		listing, err := s.store.GetListing(ctx, r.ListingID)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "notify: load listing %s", r.ListingID)
		}
		matches = append(matches, Match{Result: r, Listing: *listing})
	}
	if len(matches) == 0 {
		return nil, nil, eris.Errorf("notify: run %s has no approved results", runID)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Result.RankPosition < matches[j].Result.RankPosition
	})
	return req, matches, nil
}

func (s *Service) finish(ctx context.Context, runID, channel, msgID string, matches []Match) (*Report, error) {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.Result.ID
	}
	if err := s.store.MarkSent(ctx, runID, ids); err != nil {
		return nil, eris.Wrap(err, "notify: mark sent")
	}
	if err := s.store.CompleteStage(ctx, runID, model.StageSend); err != nil {
		return nil, err
	}

	zap.L().Info("matches sent",
		zap.String("run_id", runID),
		zap.String("channel", channel),
		zap.Int("matches", len(matches)))
	return &Report{RunID: runID, Channel: channel, MessageID: msgID, ResultIDs: ids}, nil
}
