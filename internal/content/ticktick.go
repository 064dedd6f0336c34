package content

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/inkframe/eink-renderer/internal/canonical"
	"github.com/inkframe/eink-renderer/internal/fetch"
	"github.com/inkframe/eink-renderer/internal/page"
	"github.com/inkframe/eink-renderer/pkg/models"
)

// DefaultTickTickBaseURL is the TickTick open API host.
const DefaultTickTickBaseURL = "https://api.ticktick.com"

// TickTickConfig configures one to-do list source.
type TickTickConfig struct {
	BaseURL   string
	Token     string
	ProjectID string
	Backoff   time.Duration
	Deadline  time.Duration
}

// TickTick renders a TickTick project's open tasks. One instance may be
// referenced by several device mashups; it holds only read-only client state.
type TickTick struct {
	client    *http.Client
	logger    *zap.Logger
	baseURL   string
	token     string
	projectID string
	backoff   time.Duration
	deadline  time.Duration
	now       func() time.Time
}

// NewTickTick validates the configuration eagerly so a misconfigured device
// fails loading, not mid-render.
func NewTickTick(cfg TickTickConfig, logger *zap.Logger) (*TickTick, error) {
	if cfg.Token == "" || cfg.ProjectID == "" {
		return nil, canonical.New(canonical.Misconfigured, "ticktick source needs a token and a project id")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultTickTickBaseURL
	}
	return &TickTick{
		client:    &http.Client{},
		logger:    logger,
		baseURL:   baseURL,
		token:     cfg.Token,
		projectID: cfg.ProjectID,
		backoff:   cfg.Backoff,
		deadline:  cfg.Deadline,
		now:       time.Now,
	}, nil
}

// Generate implements Source with one retry-wrapped GET against the project
// data endpoint.
func (t *TickTick) Generate(ctx context.Context) (page.Node, error) {
	target := fmt.Sprintf("%s/open/v1/project/%s/data", t.baseURL, t.projectID)
	header := http.Header{"Authorization": {"Bearer " + t.token}}

	data, err := fetch.Retry(ctx, func() (*models.ProjectData, error) {
		var out models.ProjectData
		if err := fetch.GetJSON(ctx, t.client, target, header, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}, t.backoff, t.deadline)
	if err != nil {
		t.logger.Error("TickTick fetch failed", zap.String("project", t.projectID), zap.Error(err))
		return nil, asCanonical(err)
	}

	t.logger.Debug("TickTick fetch completed",
		zap.String("project", t.projectID),
		zap.Int("tasks", len(data.Tasks)))
	return t.document(data), nil
}

func (t *TickTick) document(data *models.ProjectData) page.Node {
	now := t.now()
	return h.Div(h.Class("layout layout--col layout--stretch-x"),
		page.StatusBar(now),
		h.Div(h.Class("border--h-1")),
		h.Div(h.Class("stretch"),
			h.Div(h.Class("flex flex--left flex--col"),
				g.Map(data.Tasks, func(task models.Task) page.Node {
					return taskEntry(task, now)
				}),
			),
		),
	)
}

func taskEntry(task models.Task, now time.Time) page.Node {
	return h.Div(h.Class("item"),
		h.Div(h.Class("meta"), priorityIcon(task.Priority)),
		h.Div(h.Class("content"),
			h.Span(h.Class("title title--small"), g.Text(task.Title)),
			g.If(task.Content != "",
				h.Span(h.Class("description"), g.Text(task.Content)),
			),
			h.Div(h.Class("flex"),
				g.If(!task.StartDate.IsZero(),
					h.Span(h.Class("label label--small"),
						g.Text(relativeDays(now, task.StartDate.Time)),
					),
				),
				g.If(!task.DueDate.IsZero(),
					h.Span(h.Class("label label--small label--inverted"),
						g.Text(relativeDays(now, task.DueDate.Time)),
					),
				),
			),
		),
	)
}

func priorityIcon(priority int) page.Node {
	switch priority {
	case models.PriorityHigh:
		return h.Span(h.Class("iconoir-arrow-up"))
	case models.PriorityMedium:
		return h.Span(h.Class("iconoir-minus"))
	case models.PriorityLow:
		return h.Span(h.Class("iconoir-arrow-down"))
	default:
		return g.Text("")
	}
}

// relativeDays formats a deadline as a human offset from now: "in 2d",
// "3d ago" or "today". Partial days truncate toward zero.
func relativeDays(now, deadline time.Time) string {
	days := int(deadline.Sub(now).Hours() / 24)
	switch {
	case days < 0:
		return fmt.Sprintf("%dd ago", -days)
	case days > 0:
		return fmt.Sprintf("in %dd", days)
	default:
		return "today"
	}
}
