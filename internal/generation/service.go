// Package generation orchestrates one generation request: record lifecycle,
// single-model slots or multi-model fan-out, and optional ad compositing.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bardoun7894/basplast/internal/compositor"
	"github.com/bardoun7894/basplast/internal/domain"
	"github.com/bardoun7894/basplast/internal/infra"
	"github.com/bardoun7894/basplast/internal/metrics"
	"github.com/bardoun7894/basplast/internal/providers/kie"
)

// Mode selects between repeated calls to one model and a fan-out to all.
type Mode string

const (
	ModeSingle     Mode = "single"
	ModeMultiModel Mode = "multi-model"
)

// ParseMode maps a request mode. Anything other than multi-model is single.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeMultiModel)) {
		return ModeMultiModel
	}
	return ModeSingle
}

const (
	minCount = 1
	maxCount = 4
)

// Outcome statuses reported per model in a fan-out.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Generator runs one upstream task to completion.
type Generator interface {
	Generate(ctx context.Context, modelKey, prompt, imageURL string, aux []string) ([]string, error)
}

// Compositor burns the brand overlays into one image.
type Compositor interface {
	Composite(ctx context.Context, imageURL string, overlay compositor.Overlay) (string, error)
}

type Request struct {
	Prompt          string
	Attributes      domain.Attributes
	RefImage        string
	Mode            Mode
	Count           int
	Model           string
	AdMode          bool
	ProductName     string
	AuxiliaryImages []string
}

// ModelOutcome is the per-model result of a fan-out.
type ModelOutcome struct {
	Model  string   `json:"model"`
	Label  string   `json:"label"`
	Status string   `json:"status"`
	URLs   []string `json:"urls,omitempty"`
	Error  string   `json:"error,omitempty"`
}

type Result struct {
	RecordID string
	Status   domain.RecordStatus
	Images   []string
	Models   []ModelOutcome
}

type Options struct {
	Generator    Generator
	Compositor   Compositor
	Records      domain.RecordRepository
	DefaultModel string
	Logger       *infra.Logger
	Metrics      *metrics.Collector
	Now          func() time.Time
}

type Service struct {
	gen          Generator
	comp         Compositor
	records      domain.RecordRepository
	defaultModel string
	log          *infra.Logger
	metrics      *metrics.Collector
	now          func() time.Time
}

func NewService(opts Options) (*Service, error) {
	if opts.Generator == nil {
		return nil, errors.New("generation: generator is required")
	}
	if opts.Records == nil {
		return nil, errors.New("generation: record repository is required")
	}
	defaultModel := strings.TrimSpace(opts.DefaultModel)
	if defaultModel == "" {
		defaultModel = kie.ModelFluxFlex
	}
	if _, err := kie.LookupModel(defaultModel); err != nil {
		return nil, fmt.Errorf("generation: default model: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		gen:          opts.Generator,
		comp:         opts.Compositor,
		records:      opts.Records,
		defaultModel: defaultModel,
		log:          logger,
		metrics:      opts.Metrics,
		now:          now,
	}, nil
}

// ClampCount bounds a requested slot count to [1, 4].
func ClampCount(n int) int {
	return max(minCount, min(n, maxCount))
}

// Generate validates the request, records it as processing, dispatches the
// upstream tasks and writes the terminal status. A single-mode slot failure
// finalizes the record as failed and returns the error.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.RefImage) == "" {
		return nil, domain.ErrMissingReferenceImage
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeSingle
	}
	recordModel := domain.RecordModelAll
	if mode == ModeSingle {
		m, err := kie.LookupModel(coalesce(req.Model, s.defaultModel))
		if err != nil {
			return nil, err
		}
		recordModel = m.Key
	}

	record := &domain.GenerationRecord{
		Prompt:     req.Prompt,
		Model:      recordModel,
		Attributes: req.Attributes,
		RefImage:   req.RefImage,
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("generation: create record: %w", err)
	}
	log := s.log.With().Str("record_id", record.ID).Str("mode", string(mode)).Logger()
	log.Info().Str("model", recordModel).Msg("generation: started")

	var (
		urls     []string
		outcomes []ModelOutcome
	)
	if mode == ModeMultiModel {
		urls, outcomes = s.runMultiModel(ctx, &log, req)
	} else {
		var err error
		urls, err = s.runSingle(ctx, &log, recordModel, req)
		if err != nil {
			log.Error().Err(err).Msg("generation: slot failed")
			if cerr := s.records.Complete(ctx, record.ID, domain.RecordStatusFailed, nil); cerr != nil {
				log.Error().Err(cerr).Msg("generation: finalize failed record")
			}
			s.metrics.IncGeneration(string(mode), string(domain.RecordStatusFailed))
			return nil, err
		}
	}

	if req.AdMode && len(urls) > 0 {
		urls = s.applyOverlays(ctx, &log, urls, req.ProductName)
	}

	status := domain.RecordStatusFailed
	if len(urls) > 0 {
		status = domain.RecordStatusSuccess
	}
	if err := s.records.Complete(ctx, record.ID, status, urls); err != nil {
		return nil, fmt.Errorf("generation: complete record: %w", err)
	}
	s.metrics.IncGeneration(string(mode), string(status))
	log.Info().Str("status", string(status)).Int("images", len(urls)).Msg("generation: finished")

	if urls == nil {
		urls = []string{}
	}
	return &Result{RecordID: record.ID, Status: status, Images: urls, Models: outcomes}, nil
}

// runSingle runs count slots of one model concurrently and joins them by slot
// index, not completion order.
func (s *Service) runSingle(ctx context.Context, log *infra.Logger, modelKey string, req Request) ([]string, error) {
	count := ClampCount(req.Count)
	slots := make([][]string, count)
	var g errgroup.Group
	for i := range count {
		g.Go(func() error {
			urls, err := s.gen.Generate(withSlot(ctx, i), modelKey, req.Prompt, req.RefImage, req.AuxiliaryImages)
			if err != nil {
				return fmt.Errorf("slot %d: %w", i, err)
			}
			log.Debug().Int("slot", i).Int("images", len(urls)).Msg("generation: slot finished")
			slots[i] = urls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []string
	for _, urls := range slots {
		out = append(out, urls...)
	}
	return out, nil
}

// runMultiModel sends the request to every model. Failures are isolated per
// model and successful URLs are joined in model table order.
func (s *Service) runMultiModel(ctx context.Context, log *infra.Logger, req Request) ([]string, []ModelOutcome) {
	models := kie.Models()
	outcomes := make([]ModelOutcome, len(models))
	var wg sync.WaitGroup
	for i, m := range models {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome := ModelOutcome{Model: m.Key, Label: m.Label}
			urls, err := s.gen.Generate(withSlot(ctx, i), m.Key, req.Prompt, req.RefImage, nil)
			if err != nil {
				log.Warn().Err(err).Str("model", m.Key).Msg("generation: model failed")
				outcome.Status = OutcomeError
				outcome.Error = err.Error()
			} else {
				outcome.Status = OutcomeSuccess
				outcome.URLs = urls
			}
			outcomes[i] = outcome
		}()
	}
	wg.Wait()

	var out []string
	for _, o := range outcomes {
		out = append(out, o.URLs...)
	}
	return out, outcomes
}

// applyOverlays composites every URL in order. A failed composite keeps the
// original URL.
func (s *Service) applyOverlays(ctx context.Context, log *infra.Logger, urls []string, productName string) []string {
	if s.comp == nil {
		log.Warn().Msg("generation: ad mode requested without compositor")
		return urls
	}
	out := make([]string, len(urls))
	for i, u := range urls {
		overlay := compositor.Overlay{ProductName: productName, ProductID: s.productID()}
		composed, err := s.comp.Composite(ctx, u, overlay)
		if err != nil {
			log.Warn().Err(err).Str("url", u).Msg("generation: compositing failed, keeping original")
			s.metrics.IncCompositing(metrics.OutcomeFallback)
			out[i] = u
			continue
		}
		s.metrics.IncCompositing(metrics.OutcomeSuccess)
		out[i] = composed
	}
	return out
}

// productID is BAS- followed by the last four base36 digits of the current
// unix millisecond, upper case.
func (s *Service) productID() string {
	digits := strings.ToUpper(strconv.FormatInt(s.now().UnixMilli(), 36))
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return "BAS-" + digits
}

type slotKey struct{}

func withSlot(ctx context.Context, slot int) context.Context {
	return context.WithValue(ctx, slotKey{}, slot)
}

// slotFromContext returns the slot index a Generator call belongs to.
func slotFromContext(ctx context.Context) (int, bool) {
	slot, ok := ctx.Value(slotKey{}).(int)
	return slot, ok
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
