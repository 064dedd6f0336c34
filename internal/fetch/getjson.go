package fetch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// maxResponseBody guards against unbounded upstream responses.
const maxResponseBody = 4 << 20 // 4 MiB

// GetJSON performs one GET against target and decodes the JSON body into out.
// Failures come back classified; callers wrap the call in Retry to absorb the
// transient ones.
func GetJSON(ctx context.Context, client *http.Client, target string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &Error{Kind: KindMisconfigured, Target: target, Err: err}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Classify(target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody)) //nolint:errcheck
		return &Error{Kind: KindUpstreamStatus, Target: target, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		return &Error{Kind: KindInvalidData, Target: target, Err: err}
	}
	return nil
}
