package advisor

import (
	"context"

	"github.com/bryanwahyu/wifi-survey/internal/domain/environments"
	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
)

// Client asks a language model to review the access points of one environment
type Client interface {
	Suggest(ctx context.Context, env *environments.Environment, records []*surveys.ScanRecord) (*Advice, error)
}
