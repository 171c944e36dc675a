package gate

import (
	"fmt"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// GateControllerRoutes holds the path prefixes for the HTTP surface
type GateControllerRoutes struct {
	Access  string
	Verify  string
	Content string
	Rules   string
	Logs    string
	Stats   string
	Health  string
}

// GateController answers the public verification verbs and the
// API-key-gated admin surface.
type GateController struct {
	Debug      bool
	Logger     Logger
	Verifier   *Verifier
	Repo       RepositoryManager
	Routes     *GateControllerRoutes
	APIKey     string
	AuthScheme string
}

type GateControllerOption func(*GateController) *GateController

func WithControllerLogger(logger Logger) GateControllerOption {
	return func(c *GateController) *GateController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithVerifier(v *Verifier) GateControllerOption {
	return func(c *GateController) *GateController {
		c.Verifier = v
		return c
	}
}

func WithRepository(repo RepositoryManager) GateControllerOption {
	return func(c *GateController) *GateController {
		c.Repo = repo
		return c
	}
}

// WithControllerConfig applies the API key and auth scheme from a Config
func WithControllerConfig(config Config) GateControllerOption {
	return func(c *GateController) *GateController {
		if config == nil {
			return c
		}
		c.APIKey = config.GetAPIKey()
		if scheme := config.GetAuthScheme(); scheme != "" {
			c.AuthScheme = scheme
		}
		return c
	}
}

func WithAPIKey(key string) GateControllerOption {
	return func(c *GateController) *GateController {
		c.APIKey = key
		return c
	}
}

func WithDebug(debug bool) GateControllerOption {
	return func(c *GateController) *GateController {
		c.Debug = debug
		return c
	}
}

func NewGateController(opts ...GateControllerOption) *GateController {
	c := &GateController{
		Logger:     defLogger{},
		AuthScheme: DefaultAuthScheme,
		Routes: &GateControllerRoutes{
			Access:  "/auth/access",
			Verify:  "/auth/verify",
			Content: "/auth/content",
			Rules:   "/api/internal/access-rules",
			Logs:    "/api/internal/logs",
			Stats:   "/api/internal/stats",
			Health:  "/health",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Verifier == nil {
		panic("Missing Verifier in gate controller...")
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in gate controller...")
	}

	return c
}

// RegisterGateRoutes mounts the public verification endpoints and the
// internal admin endpoints on the given router.
func RegisterGateRoutes(app RouteRegistrar, opts ...GateControllerOption) *GateController {
	controller := NewGateController(opts...)

	app.Get(controller.Routes.Health, controller.Health)

	app.Get(fmt.Sprintf("%s/:type/:slug", controller.Routes.Access), controller.CheckAccess)
	app.Post(controller.Routes.Verify, controller.VerifyCredential)
	app.Get(fmt.Sprintf("%s/:type/:slug", controller.Routes.Content), controller.GuardedContent)

	guard := APIKeyGuard(controller.APIKey, controller.Logger)

	app.Get(controller.Routes.Rules, controller.ListRules, guard)
	app.Post(controller.Routes.Rules, controller.CreateRule, guard)
	app.Get(fmt.Sprintf("%s/:type/:slug", controller.Routes.Rules), controller.GetRule, guard)
	app.Put(fmt.Sprintf("%s/:type/:slug", controller.Routes.Rules), controller.UpdateRule, guard)
	app.Delete(fmt.Sprintf("%s/:type/:slug", controller.Routes.Rules), controller.DeleteRule, guard)
	app.Post(fmt.Sprintf("%s/:type/:slug/emails", controller.Routes.Rules), controller.AddAllowedEmail, guard)
	app.Delete(fmt.Sprintf("%s/:type/:slug/emails/:email", controller.Routes.Rules), controller.RemoveAllowedEmail, guard)

	app.Get(controller.Routes.Logs, controller.ListLogs, guard)
	app.Get(controller.Routes.Stats, controller.Stats, guard)

	return controller
}

// Health reports liveness
func (a *GateController) Health(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]string{"status": "ok"})
}

// CheckAccess reports which credential a content item requires. Public
// and unaudited; reveals nothing beyond the access mode.
func (a *GateController) CheckAccess(ctx router.Context) error {
	contentType := ctx.Param("type")
	slug := ctx.Param("slug")

	if !IsValidContentType(contentType) || slug == "" {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "unknown content type or slug",
		})
	}

	reqs, err := a.Verifier.CheckRequirements(ctx.Context(), contentType, slug)
	if err != nil {
		return WriteError(ctx, err, a.Logger)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"accessMode":       reqs.Mode,
		"requiresPassword": reqs.RequiresPassword,
		"requiresEmail":    reqs.RequiresEmail,
		"message":          requirementsMessage(reqs.Mode),
	})
}

// VerifyPayload is the POST /auth/verify body
type VerifyPayload struct {
	ContentType string `form:"type" json:"type"`
	Slug        string `form:"slug" json:"slug"`
	Password    string `form:"password" json:"password"`
	Email       string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r VerifyPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.ContentType,
			validation.Required,
			validation.In(toAnySlice(ContentTypes)...),
		),
		validation.Field(
			&r.Slug,
			validation.Required,
		),
	)
}

// VerifyCredential runs one verification attempt. Every call, granted
// or denied, lands in the audit trail; denials come back as 200 with
// success=false, never as transport errors.
func (a *GateController) VerifyCredential(ctx router.Context) error {
	payload := new(VerifyPayload)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "could not parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	if a.Debug {
		a.Logger.Debug("verify payload %s", print.MaybePrettyJSON(map[string]any{
			"type": payload.ContentType,
			"slug": payload.Slug,
		}))
	}

	result, err := a.Verifier.Verify(ctx.Context(), VerifyRequest{
		Type: payload.ContentType,
		Slug: payload.Slug,
		Credential: Credential{
			Password: payload.Password,
			Email:    payload.Email,
		},
		Meta: RequestMeta{
			IP:        ctx.GetString("X-Forwarded-For", ""),
			UserAgent: ctx.GetString("User-Agent", ""),
		},
	})
	if err != nil {
		return WriteError(ctx, err, a.Logger)
	}

	response := map[string]any{
		"success":    result.Success,
		"accessMode": result.Mode,
	}
	if result.Success {
		response["token"] = result.Token
	} else {
		response["message"] = result.Message
	}

	return ctx.JSON(router.StatusOK, response)
}

// GuardedContent serves content bytes for a valid bearer token scoped
// to exactly the requested (type, slug).
func (a *GateController) GuardedContent(ctx router.Context) error {
	contentType := ctx.Param("type")
	slug := ctx.Param("slug")

	token := BearerToken(ctx, a.AuthScheme)
	if token == "" {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "missing bearer token",
		})
	}

	content, err := a.Verifier.GuardedContent(ctx.Context(), contentType, slug, token)
	if err != nil {
		if IsTokenExpiredError(err) || IsMalformedError(err) || errors.Is(err, ErrTokenMismatch) {
			return ctx.JSON(router.StatusUnauthorized, map[string]string{
				"error": "invalid or expired access token",
			})
		}
		return WriteError(ctx, err, a.Logger)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"type":    contentType,
		"slug":    slug,
		"content": string(content),
	})
}

// RulePayload is the admin create/update body
type RulePayload struct {
	ContentType   string   `form:"type" json:"type"`
	Slug          string   `form:"slug" json:"slug"`
	AccessMode    string   `form:"accessMode" json:"accessMode"`
	Description   string   `form:"description" json:"description"`
	Password      string   `form:"password" json:"password"`
	AllowedEmails []string `form:"allowedEmails" json:"allowedEmails"`
}

// Validate will run validation rules
func (r RulePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.ContentType,
			validation.Required,
			validation.In(toAnySlice(ContentTypes)...),
		),
		validation.Field(
			&r.Slug,
			validation.Required,
		),
		validation.Field(
			&r.AccessMode,
			validation.Required,
			validation.In(toAnySlice(AccessModes)...),
		),
	)
}

// ListRules returns every rule, optionally filtered by type and mode
func (a *GateController) ListRules(ctx router.Context) error {
	filters := RuleFilters{
		Type: ctx.Query("type", ""),
		Mode: ctx.Query("mode", ""),
	}

	records, err := a.Repo.Rules().ListRules(ctx.Context(), filters)
	if err != nil {
		return WriteError(ctx, err, a.Logger)
	}

	rules := make([]map[string]any, 0, len(records))
	for _, record := range records {
		rules = append(rules, ruleResponse(record))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}

// CreateRule creates one rule; duplicates of a live (type, slug) 409
func (a *GateController) CreateRule(ctx router.Context) error {
	payload := new(RulePayload)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "could not parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	var created *AccessRule
	handler := NewCreateRuleHandler(a.Repo)
	err := handler.Execute(ctx.Context(), CreateRuleMessage{
		ContentType:   payload.ContentType,
		Slug:          payload.Slug,
		AccessMode:    payload.AccessMode,
		Description:   payload.Description,
		Password:      payload.Password,
		AllowedEmails: payload.AllowedEmails,
		OnCreated: func(rule *AccessRule) {
			created = rule
		},
	})
	if err != nil {
		return WriteError(ctx, err, a.Logger)
	}

	return ctx.JSON(router.StatusCreated, ruleResponse(created))
}

// GetRule returns one rule by natural key; admins get a 404, not the
// public default-open treatment.
func (a *GateController) GetRule(ctx router.Context) error {
	record, err := a.Repo.Rules().GetBySlug(ctx.Context(), ctx.Param("type"), ctx.Param("slug"))
	if err != nil {
		if errors.IsNotFound(err) {
			return ctx.JSON(router.StatusNotFound, map[string]string{
				"error": ErrRuleNotFound.Message,
			})
		}
		return WriteError(ctx, err, a.Logger)
	}

	return ctx.JSON(router.StatusOK, ruleResponse(record))
}

// UpdateRule applies partial changes to one rule
func (a *GateController) UpdateRule(ctx router.Context) error {
	payload := new(RulePayload)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "could not parse request body",
		})
	}

	if payload.AccessMode != "" && !IsValidAccessMode(payload.AccessMode) {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "unknown access mode",
		})
	}

	var updated *AccessRule
	handler := NewUpdateRuleHandler(a.Repo)
	err := handler.Execute(ctx.Context(), UpdateRuleMessage{
		ContentType:   ctx.Param("type"),
		Slug:          ctx.Param("slug"),
		AccessMode:    payload.AccessMode,
		Description:   payload.Description,
		Password:      payload.Password,
		AllowedEmails: payload.AllowedEmails,
		OnUpdated: func(rule *AccessRule) {
			updated = rule
		},
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return ctx.JSON(router.StatusNotFound, map[string]string{
				"error": ErrRuleNotFound.Message,
			})
		}
		return WriteError(ctx, err, a.Logger)
	}

	return ctx.JSON(router.StatusOK, ruleResponse(updated))
}

// DeleteRule removes one rule, reverting the item to open-by-default
func (a *GateController) DeleteRule(ctx router.Context) error {
	handler := NewDeleteRuleHandler(a.Repo)
	err := handler.Execute(ctx.Context(), DeleteRuleMessage{
		ContentType: ctx.Param("type"),
		Slug:        ctx.Param("slug"),
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return ctx.JSON(router.StatusNotFound, map[string]string{
				"error": ErrRuleNotFound.Message,
			})
		}
		return WriteError(ctx, err, a.Logger)
	}

	return ctx.Status(router.StatusNoContent).SendString("")
}

// EmailPayload is the allowlist add body
type EmailPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r EmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
		),
	)
}

// AddAllowedEmail appends one address to a rule's allowlist
func (a *GateController) AddAllowedEmail(ctx router.Context) error {
	payload := new(EmailPayload)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "could not parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	entry, err := a.Repo.Rules().AddEmail(ctx.Context(), ctx.Param("type"), ctx.Param("slug"), payload.Email)
	if err != nil {
		if errors.IsNotFound(err) {
			return ctx.JSON(router.StatusNotFound, map[string]string{
				"error": ErrRuleNotFound.Message,
			})
		}
		return WriteError(ctx, err, a.Logger)
	}

	return ctx.JSON(router.StatusCreated, map[string]string{
		"email": entry.Email,
	})
}

// RemoveAllowedEmail drops one address from a rule's allowlist
func (a *GateController) RemoveAllowedEmail(ctx router.Context) error {
	err := a.Repo.Rules().RemoveEmail(ctx.Context(), ctx.Param("type"), ctx.Param("slug"), ctx.Param("email"))
	if err != nil {
		if errors.IsNotFound(err) {
			return ctx.JSON(router.StatusNotFound, map[string]string{
				"error": "email not on allowlist",
			})
		}
		return WriteError(ctx, err, a.Logger)
	}

	return ctx.Status(router.StatusNoContent).SendString("")
}

// ListLogs returns recent audit entries, newest first
func (a *GateController) ListLogs(ctx router.Context) error {
	filters := LogFilters{
		Type: ctx.Query("type", ""),
		Slug: ctx.Query("slug", ""),
	}

	if raw := ctx.Query("limit", ""); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return ctx.JSON(router.StatusBadRequest, map[string]string{
				"error": "limit must be a non-negative integer",
			})
		}
		filters.Limit = limit
	}

	if raw := ctx.Query("failed", ""); raw != "" {
		failed, err := strconv.ParseBool(raw)
		if err != nil {
			return ctx.JSON(router.StatusBadRequest, map[string]string{
				"error": "failed must be a boolean",
			})
		}
		filters.Failed = &failed
	}

	entries, err := a.Repo.AccessLogs().ListEntries(ctx.Context(), filters)
	if err != nil {
		return WriteError(ctx, err, a.Logger)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"logs":  entries,
		"count": len(entries),
	})
}

// Stats summarizes verification attempts, optionally over a window
func (a *GateController) Stats(ctx router.Context) error {
	start, err := parseStatsDate(ctx.Query("start", ""))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "start must be an RFC3339 timestamp or YYYY-MM-DD date",
		})
	}

	end, err := parseStatsDate(ctx.Query("end", ""))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "end must be an RFC3339 timestamp or YYYY-MM-DD date",
		})
	}

	stats, err := a.Repo.AccessLogs().Stats(ctx.Context(), start, end)
	if err != nil {
		return WriteError(ctx, err, a.Logger)
	}

	return ctx.JSON(router.StatusOK, stats)
}

func requirementsMessage(mode AccessMode) string {
	switch mode {
	case ModePassword:
		return "This content requires a password"
	case ModeEmailList:
		return "This content requires an approved email"
	default:
		return "This content is open"
	}
}

func ruleResponse(rule *AccessRule) map[string]any {
	if rule == nil {
		return nil
	}

	response := map[string]any{
		"id":          rule.ID.String(),
		"type":        rule.Type,
		"slug":        rule.Slug,
		"accessMode":  rule.Mode,
		"description": rule.Description,
	}

	if rule.Mode == ModeEmailList {
		emails := rule.EmailStrings()
		if emails == nil {
			emails = []string{}
		}
		response["allowedEmails"] = emails
	}

	if rule.CreatedAt != nil {
		response["created_at"] = rule.CreatedAt
	}
	if rule.UpdatedAt != nil {
		response["updated_at"] = rule.UpdatedAt
	}

	return response
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func parseStatsDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}

	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
