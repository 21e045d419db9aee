package projects

import (
	"context"
	"crypto/rand"
	"fmt"
)

const (
	projectNoDigits = 10
	itemNoDigits    = 6
	projectNoPrefix = "PJ"
)

func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("projects: random digits: %w", err)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = '0' + b%10
	}
	return string(out), nil
}

// nextProjectNo draws random candidates until one is unused. Soft-deleted
// projects keep their numbers reserved.
func (s *Service) nextProjectNo(ctx context.Context) (string, error) {
	for {
		digits, err := randomDigits(projectNoDigits)
		if err != nil {
			return "", err
		}
		projectNo := projectNoPrefix + digits
		exists, err := s.repo.ProjectNoExists(ctx, projectNo)
		if err != nil {
			return "", err
		}
		if !exists {
			return projectNo, nil
		}
	}
}

// itemNumber builds a per-line quotation number. The trailing index keeps
// numbers unique within one project even on a random-digit collision.
func itemNumber(projectNo string, index int) (string, error) {
	digits, err := randomDigits(itemNoDigits)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%sQ%s%d", projectNo, digits, index), nil
}
