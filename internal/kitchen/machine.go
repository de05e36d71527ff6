package kitchen

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"fridgechef/internal/recipe"
)

// Option configures the Machine.
type Option func(*Machine)

// WithNarrator sets the narrator used by the cooking walkthrough.
func WithNarrator(n Narrator) Option {
	return func(m *Machine) {
		m.narrator = n
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Machine) {
		m.metrics = metrics
	}
}

// WithCallTimeout bounds every extraction and generation call. Zero disables
// the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(m *Machine) {
		m.callTimeout = d
	}
}

// WithIDGenerator overrides how recipe IDs are assigned within a batch.
func WithIDGenerator(next func() string) Option {
	return func(m *Machine) {
		m.newID = next
	}
}

// Machine owns the application state. Transitions are serialized by a mutex
// that is released while an external call is in flight, so Snapshot always
// reflects the current loading message. At most one extraction or generation
// call runs at a time; overlapping requests get ErrBusy.
type Machine struct {
	extractor recipe.IngredientExtractor
	generator recipe.RecipeGenerator
	narrator  Narrator
	log       *zap.Logger
	metrics   *Metrics

	callTimeout time.Duration
	newID       func() string

	mu             sync.Mutex
	view           View
	loading        bool
	loadingMessage string
	errMsg         string
	owned          []string
	recipes        []recipe.Recipe
	filters        recipe.FilterSet
	selected       *recipe.Recipe
	walkthrough    *Walkthrough
	shopping       ShoppingList
	// epoch changes whenever the upload reset discards the ingredient
	// context, so late refetch results are dropped.
	epoch uint64
}

// New creates a Machine in the Upload view.
func New(extractor recipe.IngredientExtractor, generator recipe.RecipeGenerator, log *zap.Logger, opts ...Option) *Machine {
	m := &Machine{
		extractor: extractor,
		generator: generator,
		log:       log,
		newID:     uuid.NewString,
		view:      ViewUpload,
		filters:   recipe.NewFilterSet(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = NewMetrics(prometheus.NewRegistry())
	}
	return m
}

// SubmitImage identifies the ingredients in img and generates recipes for
// them. Failures are recorded in the state error and the view returns to
// Upload. Loading is cleared on every exit path. If the user navigates to
// Upload while a call is in flight, its result is dropped.
func (m *Machine) SubmitImage(ctx context.Context, img recipe.Image) error {
	epoch, ok := m.beginLoading("submit", MsgAnalyzing)
	if !ok {
		return ErrBusy
	}
	defer m.endLoading()

	ingredients, err := m.identify(ctx, img)
	if err != nil {
		m.log.Error("ingredient identification failed", zap.Error(err))
		m.fail("submit", MsgSubmitFailed, epoch)
		return err
	}
	ingredients = recipe.CleanIngredientNames(ingredients)

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.metrics.transition("submit", "discarded")
		return nil
	}
	m.owned = ingredients
	if len(ingredients) == 0 {
		m.errMsg = MsgNoIngredients
		m.leaveCookingLocked()
		m.view = ViewUpload
		m.mu.Unlock()
		m.metrics.transition("submit", "empty")
		m.log.Info("no ingredients identified")
		return nil
	}
	m.loadingMessage = MsgGenerating
	filters := m.filters.Clone()
	m.mu.Unlock()

	m.log.Info("ingredients identified", zap.Strings("ingredients", ingredients))

	recipes, err := m.generate(ctx, ingredients, filters)
	if err != nil {
		m.log.Error("recipe generation failed", zap.Error(err))
		m.fail("submit", MsgSubmitFailed, epoch)
		return err
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.metrics.transition("submit", "discarded")
		return nil
	}
	m.recipes = m.assignIDs(recipes)
	m.errMsg = ""
	m.leaveCookingLocked()
	m.view = ViewRecipes
	m.mu.Unlock()

	m.metrics.transition("submit", "ok")
	m.log.Info("recipes generated", zap.Int("count", len(recipes)))
	return nil
}

// RefetchRecipes regenerates recipes for the owned ingredients and the active
// filters. It is a no-op without ingredients. On failure the previous recipes
// are kept.
func (m *Machine) RefetchRecipes(ctx context.Context) error {
	m.mu.Lock()
	if len(m.owned) == 0 {
		m.mu.Unlock()
		return nil
	}
	if m.loading {
		m.mu.Unlock()
		m.metrics.reject("refetch")
		return ErrBusy
	}
	m.loading = true
	m.loadingMessage = MsgUpdating
	m.errMsg = ""
	ingredients := append([]string(nil), m.owned...)
	filters := m.filters.Clone()
	epoch := m.epoch
	m.mu.Unlock()
	defer m.endLoading()

	recipes, err := m.generate(ctx, ingredients, filters)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		m.metrics.transition("refetch", "discarded")
		return nil
	}
	if err != nil {
		m.log.Error("recipe refetch failed", zap.Error(err))
		m.errMsg = MsgRefetchFailed
		m.metrics.transition("refetch", "error")
		return err
	}
	m.recipes = m.assignIDs(recipes)
	m.errMsg = ""
	m.metrics.transition("refetch", "ok")
	return nil
}

// ToggleFilter flips membership of f in the active filters. While the
// Recipes view is showing results for known ingredients, the change
// immediately regenerates them.
func (m *Machine) ToggleFilter(ctx context.Context, f recipe.DietaryFilter) error {
	m.mu.Lock()
	m.filters.Toggle(f)
	refetch := m.view == ViewRecipes && len(m.owned) > 0
	m.mu.Unlock()

	m.metrics.transition("toggle_filter", "ok")
	if !refetch {
		return nil
	}
	return m.RefetchRecipes(ctx)
}

// SelectRecipe enters the Cooking view for the recipe with the given ID from
// the current batch. The walkthrough restarts at the first step.
func (m *Machine) SelectRecipe(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.findLocked(id)
	if !ok {
		return ErrRecipeNotFound
	}

	m.leaveCookingLocked()
	selected := r.Clone()
	m.selected = &selected
	m.walkthrough = NewWalkthrough(selected.Instructions, m.narrator)
	m.view = ViewCooking
	m.metrics.transition("select_recipe", "ok")
	m.log.Debug("recipe selected", zap.String("id", id), zap.String("title", selected.Title))
	return nil
}

// ExitCooking cancels narration and returns to the Recipes view. The selected
// recipe is kept until the next selection.
func (m *Machine) ExitCooking() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view != ViewCooking {
		return ErrNotCooking
	}
	m.leaveCookingLocked()
	m.view = ViewRecipes
	m.metrics.transition("exit_cooking", "ok")
	return nil
}

// Navigate switches to target. Going to Upload discards the ingredients,
// recipes and filters but keeps the shopping list and error. Cooking can
// only be re-entered while the selected recipe is still in the batch.
func (m *Machine) Navigate(target View) error {
	target, err := ParseView(string(target))
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if target == ViewCooking {
		if m.selected == nil {
			return ErrRecipeNotFound
		}
		if _, ok := m.findLocked(m.selected.ID); !ok {
			return ErrRecipeNotFound
		}
	} else {
		m.leaveCookingLocked()
	}

	if target == ViewUpload {
		m.owned = nil
		m.recipes = nil
		m.filters = recipe.NewFilterSet()
		m.epoch++
	}
	m.view = target
	m.metrics.transition("navigate", string(target))
	return nil
}

// NextStep advances the cooking cursor.
func (m *Machine) NextStep() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view != ViewCooking || m.walkthrough == nil {
		return 0, ErrNotCooking
	}
	return m.walkthrough.Next(), nil
}

// PreviousStep moves the cooking cursor back.
func (m *Machine) PreviousStep() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view != ViewCooking || m.walkthrough == nil {
		return 0, ErrNotCooking
	}
	return m.walkthrough.Previous(), nil
}

// ReadAloud narrates the current step. Narration failures wrap
// ErrNarrationUnavailable and leave the view and error untouched.
func (m *Machine) ReadAloud(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view != ViewCooking || m.walkthrough == nil {
		return ErrNotCooking
	}
	if err := m.walkthrough.ReadAloud(ctx); err != nil {
		m.log.Warn("narration failed", zap.Error(err))
		m.metrics.transition("read_aloud", "unavailable")
		return err
	}
	m.metrics.transition("read_aloud", "ok")
	return nil
}

// AddShoppingItem adds item unless it is already listed in any casing.
func (m *Machine) AddShoppingItem(item string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shopping.Add(item)
}

// RemoveShoppingItem removes the entry exactly equal to item.
func (m *Machine) RemoveShoppingItem(item string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shopping.Remove(item)
}

// ClearShoppingList empties the shopping list.
func (m *Machine) ClearShoppingList() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shopping.Clear()
}

// AddMissingToShoppingList adds every ingredient of the recipe that is not
// among the owned ingredients. It returns the number of new entries.
func (m *Machine) AddMissingToShoppingList(id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.findLocked(id)
	if !ok {
		return 0, ErrRecipeNotFound
	}
	added := 0
	for _, ing := range r.MissingIngredients(m.owned) {
		if m.shopping.Add(ing.Name) {
			added++
		}
	}
	return added, nil
}

func (m *Machine) beginLoading(operation, message string) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loading {
		m.metrics.reject(operation)
		return 0, false
	}
	m.loading = true
	m.loadingMessage = message
	m.errMsg = ""
	return m.epoch, true
}

func (m *Machine) endLoading() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	m.loadingMessage = ""
}

func (m *Machine) fail(operation, message string, epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		m.metrics.transition(operation, "discarded")
		return
	}
	m.errMsg = message
	m.leaveCookingLocked()
	m.view = ViewUpload
	m.metrics.transition(operation, "error")
}

func (m *Machine) identify(ctx context.Context, img recipe.Image) ([]string, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	ingredients, err := m.extractor.IdentifyIngredients(ctx, img)
	m.metrics.observeCall("extractor", start, err)
	return ingredients, err
}

func (m *Machine) generate(ctx context.Context, ingredients []string, filters recipe.FilterSet) ([]recipe.Recipe, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	recipes, err := m.generator.GenerateRecipes(ctx, ingredients, filters)
	m.metrics.observeCall("generator", start, err)
	return recipes, err
}

func (m *Machine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.callTimeout)
}

// assignIDs copies the batch and gives every recipe a fresh ID so that
// recipes sharing a title stay distinguishable.
func (m *Machine) assignIDs(recipes []recipe.Recipe) []recipe.Recipe {
	batch := make([]recipe.Recipe, 0, len(recipes))
	for _, r := range recipes {
		c := r.Clone()
		c.ID = m.newID()
		batch = append(batch, c)
	}
	return batch
}

func (m *Machine) findLocked(id string) (recipe.Recipe, bool) {
	for _, r := range m.recipes {
		if r.ID == id {
			return r, true
		}
	}
	return recipe.Recipe{}, false
}

// leaveCookingLocked cancels narration when the Cooking view is being left.
func (m *Machine) leaveCookingLocked() {
	if m.view == ViewCooking && m.walkthrough != nil {
		m.walkthrough.Stop()
	}
}
