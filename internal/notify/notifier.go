package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/oggyb/roomate/internal/repository"
	"gorm.io/gorm"
)

// FallbackName is used when a matched user has no profile name yet.
const FallbackName = "A Husky"

// Notifier is told about every newly created match.
type Notifier interface {
	MatchCreated(ctx context.Context, userA, userB string) error
}

// EmailJob is one outgoing email, handed to a Publisher for delivery.
type EmailJob struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Publisher hands an email job to whatever delivers it.
type Publisher interface {
	Publish(ctx context.Context, job EmailJob) error
}

// Nop ignores every match. Used when notifications are disabled.
type Nop struct{}

func (Nop) MatchCreated(context.Context, string, string) error { return nil }

var matchEmail = template.Must(template.New("match").Parse(`<div style="font-family: 'Open Sans', Arial, sans-serif; max-width: 480px; margin: 0 auto; padding: 32px 24px; background: #f9fafb;">
  <div style="background: #4B2E83; border-radius: 16px 16px 0 0; padding: 32px 24px; text-align: center;">
    <h1 style="color: #FFC700; font-size: 28px; margin: 0;">It's a Match!</h1>
  </div>
  <div style="background: white; border-radius: 0 0 16px 16px; padding: 32px 24px; text-align: center;">
    <p style="color: #374151; font-size: 16px; margin: 0 0 8px;">Hey {{.Recipient}}!</p>
    <p style="color: #6b7280; font-size: 15px; margin: 0 0 24px;">
      You and <strong style="color: #4B2E83;">{{.Other}}</strong> both expressed interest in being roommates.
      Head to your matches to start chatting!
    </p>
    <a href="{{.MatchesURL}}" style="display: inline-block; background: #4B2E83; color: white; padding: 12px 32px; border-radius: 12px; text-decoration: none; font-weight: 600; font-size: 15px;">View Your Matches</a>
    <p style="color: #9ca3af; font-size: 12px; margin: 24px 0 0;">Roomate - Find Your Husky Roommate</p>
  </div>
</div>
`))

// EmailNotifier enqueues one "you matched" email per participant.
type EmailNotifier struct {
	users     *repository.UserRepository
	profiles  *repository.ProfileRepository
	publisher Publisher
	appURL    string
	from      string
	logger    *slog.Logger
}

// NewEmailNotifier creates a notifier reading users and profiles from database.
func NewEmailNotifier(database *gorm.DB, publisher Publisher, appURL, from string, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		users:     repository.NewUserRepository(database),
		profiles:  repository.NewProfileRepository(database),
		publisher: publisher,
		appURL:    appURL,
		from:      from,
		logger:    logger,
	}
}

// MatchCreated notifies both users of a new match.
//
// Behavior:
//   - Emails come from the local user mirror; users without one are skipped.
//   - Names come from profiles, falling back to FallbackName.
//   - Each recipient is published independently. A failure for one does not
//     stop the other; all failures are joined into the returned error.
//
// Example:
//
//	err := n.MatchCreated(ctx, "user-a", "user-b")
func (n *EmailNotifier) MatchCreated(ctx context.Context, userA, userB string) error {
	ids := []string{userA, userB}

	users, err := n.users.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	profiles, err := n.profiles.GetByUserIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}

	name := func(id string) string {
		if p, ok := profiles[id]; ok && p.Name != "" {
			return p.Name
		}
		return FallbackName
	}

	var errs []error
	for _, pair := range [][2]string{{userA, userB}, {userB, userA}} {
		recipient, other := pair[0], pair[1]
		email := users[recipient].Email
		if email == "" {
			n.logger.Debug("skipping match email, no address", "user_id", recipient)
			continue
		}

		job, err := n.render(email, name(recipient), name(other))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := n.publisher.Publish(ctx, job); err != nil {
			errs = append(errs, fmt.Errorf("publish match email for %s: %w", recipient, err))
			continue
		}
		n.logger.Debug("match email queued", "user_id", recipient)
	}
	return errors.Join(errs...)
}

func (n *EmailNotifier) render(to, recipient, other string) (EmailJob, error) {
	var buf bytes.Buffer
	err := matchEmail.Execute(&buf, struct {
		Recipient, Other, MatchesURL string
	}{recipient, other, n.appURL + "/matches"})
	if err != nil {
		return EmailJob{}, fmt.Errorf("render match email: %w", err)
	}
	return EmailJob{
		From:    n.from,
		To:      to,
		Subject: fmt.Sprintf("You matched with %s!", other),
		HTML:    buf.String(),
	}, nil
}
