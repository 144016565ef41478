package youtube

import (
	"context"
	"errors"

	"google.golang.org/api/googleapi"

	"github.com/mmcdole/tubeshelf/internal/domain"
)

// mapError converts an upstream failure into a *domain.APIError.
// Network and context errors pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	apiErr := &domain.APIError{Status: gerr.Code, Message: gerr.Message}
	if len(gerr.Errors) > 0 {
		apiErr.Reason = gerr.Errors[0].Reason
		if apiErr.Message == "" {
			apiErr.Message = gerr.Errors[0].Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = gerr.Body
	}
	return apiErr
}
