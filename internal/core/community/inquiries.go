package community

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/stockhub-kr/stockhub/internal/core"
	"github.com/stockhub-kr/stockhub/internal/core/validate"
)

// InquiryRelay forwards a stored inquiry to the admin mailbox. The mail
// dispatcher satisfies it; delivery is fire-and-forget.
type InquiryRelay interface {
	RelayInquiry(inquiry core.Inquiry)
}

// InquiryInput carries the contact-form fields.
type InquiryInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (in *InquiryInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if err := validate.Email(in.Email); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if strings.TrimSpace(in.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalid)
	}
	if utf8.RuneCountInString(in.Subject) > MaxSubjectLength {
		return fmt.Errorf("%w: subject exceeds %d characters", ErrInvalid, MaxSubjectLength)
	}
	if strings.TrimSpace(in.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalid)
	}
	if utf8.RuneCountInString(in.Message) > MaxMessageLength {
		return fmt.Errorf("%w: message exceeds %d characters", ErrInvalid, MaxMessageLength)
	}
	return nil
}

// SubmitInquiry stores a contact-form submission and relays it to the
// admin mailbox when a relay is configured.
func (s *Service) SubmitInquiry(ctx context.Context, in InquiryInput, relay InquiryRelay) (*core.Inquiry, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	inquiry := &core.Inquiry{
		ID:        newID("inquiry"),
		Name:      validate.SanitizeText(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Subject:   validate.SanitizeText(in.Subject),
		Message:   validate.SanitizeText(in.Message),
		CreatedAt: s.now(),
	}
	if err := s.Store.InsertInquiry(ctx, inquiry); err != nil {
		return nil, err
	}

	if relay != nil {
		relay.RelayInquiry(*inquiry)
	}
	return inquiry, nil
}

// ListInquiries returns submissions newest first. Admin only.
func (s *Service) ListInquiries(ctx context.Context, limit int) ([]core.Inquiry, error) {
	return s.Store.ListInquiries(ctx, limit)
}

// MarkInquiryAnswered flags a submission as handled. Admin only.
func (s *Service) MarkInquiryAnswered(ctx context.Context, id string) error {
	marked, err := s.Store.MarkInquiryAnswered(ctx, id)
	if err != nil {
		return err
	}
	if !marked {
		return fmt.Errorf("%w: inquiry %s", ErrNotFound, id)
	}
	return nil
}
