package watcher

import (
	"fmt"
	"strings"

	"github.com/samvad-hq/falcon-incidents/internal/domain"
	"github.com/samvad-hq/falcon-incidents/pkg/incidents"
)

func apiError(op string, res incidents.Result) error {
	msgs := domain.ErrorMessages(res.Body)
	if len(msgs) == 0 {
		return fmt.Errorf("%s returned status %d", op, res.StatusCode)
	}
	return fmt.Errorf("%s returned status %d: %s", op, res.StatusCode, strings.Join(msgs, "; "))
}
