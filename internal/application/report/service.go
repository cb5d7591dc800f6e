package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/akvora-api/internal/domain"
	"github.com/akvora-api/internal/pkg/validate"
)

// ist is the team's local time, used for the submitted timestamp.
var ist = time.FixedZone("IST", 5*60*60+30*60)

type Service interface {
	ReportIssue(ctx context.Context, u *domain.User, req domain.ReportIssueRequest) error
}

type mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type service struct {
	mail mailer
	to   string
	now  func() time.Time
}

// NewService sends issue reports to the support inbox at to.
func NewService(mail mailer, to string) Service {
	return &service{mail: mail, to: to, now: time.Now}
}

func (s *service) ReportIssue(ctx context.Context, u *domain.User, req domain.ReportIssueRequest) error {
	req.Issue = strings.TrimSpace(req.Issue)
	if err := validate.Struct(req); err != nil {
		return err
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = "User"
	}
	subject := "New Issue Reported by " + name
	body := fmt.Sprintf(`New issue reported in AKVORA platform.

User Details:
- Name: %s
- Email: %s
- AKVORA ID: %s
- Submitted Date: %s

Issue Description:
%s

---
This email was generated automatically from the AKVORA Issue Reporting system.
`, name, u.Email, u.AkvoraID, s.now().In(ist).Format("02/01/2006, 15:04:05"), req.Issue)

	if err := s.mail.SendEmail(ctx, s.to, subject, body); err != nil {
		slog.Error("issue report email failed", "user_id", u.UserID, "err", err)
		return fmt.Errorf("send issue report: %w", err)
	}
	slog.Info("issue reported", "user_id", u.UserID)
	return nil
}
