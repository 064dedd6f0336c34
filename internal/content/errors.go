package content

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/inkframe/eink-renderer/internal/canonical"
	"github.com/inkframe/eink-renderer/internal/fetch"
)

// asCanonical translates source-level failures into the shared taxonomy at
// the generation boundary. Raw upstream error shapes never leave this
// package.
func asCanonical(err error) error {
	var ce *canonical.Error
	if errors.As(err, &ce) {
		return err
	}
	var fe *fetch.Error
	if !errors.As(err, &fe) {
		return canonical.Wrap(canonical.Unknown, "Content generation failed for an unexpected reason.", err)
	}
	switch fe.Kind {
	case fetch.KindTimeout:
		return canonical.Wrap(canonical.DeadlineExceeded,
			"The request to retrieve the content took too long.", err)
	case fetch.KindConnectionFailed:
		return canonical.Wrap(canonical.UpstreamUnavailable,
			"While obtaining content a network error was encountered.", err)
	case fetch.KindUpstreamStatus:
		switch fe.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return canonical.Wrap(canonical.PermissionDenied,
				"The upstream service rejected our credentials.", err)
		case http.StatusNotFound:
			return canonical.Wrap(canonical.NotFound,
				"The upstream service does not know the requested resource.", err)
		default:
			return canonical.Wrap(canonical.UpstreamUnavailable,
				fmt.Sprintf("Fetching from %s resulted in %d.", fe.Target, fe.Status), err)
		}
	case fetch.KindInvalidData:
		return canonical.Wrap(canonical.UpstreamInvalidResponse,
			"The response from upstream returned invalid data.", err)
	case fetch.KindMisconfigured:
		return canonical.Wrap(canonical.Misconfigured,
			"The plugin can't produce content because it's misconfigured.", err)
	default:
		return canonical.Wrap(canonical.Unknown, "Content generation failed for an unexpected reason.", err)
	}
}
