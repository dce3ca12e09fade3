package discordbot

import (
	"context"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meoww-bot/meoww/internal/core/preview"
	"github.com/meoww-bot/meoww/internal/core/ui"
	"github.com/meoww-bot/meoww/internal/platform/observability"
)

// Route labels for the interactions metric.
const (
	routePreview   = "preview"
	routeNoMatch   = "no_match"
	routeBlocked   = "nsfw_blocked"
	routeGreeting  = "greeting"
	routeNavigate  = "navigate"
	routeShare     = "share"
	routeIDPreview = "id_preview"
	routeCommand   = "command"
	routeIgnored   = "ignored"
	routePanic     = "panic"
)

// bareGalleryID is a gallery number posted without a link.
var bareGalleryID = regexp.MustCompile(`\d{6}`)

// idSources are offered, in order, when a bare gallery number is previewed.
var idSources = []preview.SourceChoice{
	{Source: preview.SourceNHentai, Label: "nHentai"},
	{Source: preview.SourceJMComic, Label: "18Comic"},
	{Source: preview.SourceWNACG, Label: "WNACG"},
}

// Router dispatches decoded events. It holds no per-event state.
type Router struct {
	session  Session
	registry *preview.Registry
	safe     SafetyFunc
	commands commandRegistry
	logger   *zerolog.Logger
}

// NewRouter builds a router. A nil safe allows adult content everywhere.
func NewRouter(session Session, registry *preview.Registry, safe SafetyFunc, logger *zerolog.Logger) *Router {
	if safe == nil {
		safe = AllowAll
	}

	r := &Router{
		session:  session,
		registry: registry,
		safe:     safe,
		logger:   logger,
	}
	r.commands = r.newCommandRegistry()

	return r
}

// Handle processes one event. It never panics, and every interaction is
// acknowledged before it returns.
func (r *Router) Handle(ctx context.Context, ev Event) {
	logger := r.logger.With().
		Str(LogFieldRequestID, uuid.NewString()).
		Str(LogFieldEventKind, ev.Kind()).
		Logger()

	switch e := ev.(type) {
	case MessageEvent:
		r.handleMessage(ctx, &logger, e)
	case CommandEvent:
		r.handleCommand(ctx, &logger, e)
	case ComponentEvent:
		r.handleComponent(ctx, &logger, e)
	}
}

func handled(kind, route string) {
	observability.InteractionsHandled.WithLabelValues(kind, route).Inc()
}

func (r *Router) handleMessage(ctx context.Context, logger *zerolog.Logger, e MessageEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().Interface("panic", rec).Str(LogFieldChannelID, e.ChannelID).Msg("message handler panicked")
			handled(KindMessage, routePanic)
		}
	}()

	if e.AuthorBot {
		return
	}

	if isGreeting(e.Content) {
		r.greet(logger, e)
	}

	m, ok := r.registry.Find(ctx, e.Content)
	if !ok {
		handled(KindMessage, routeNoMatch)
		return
	}

	route := routePreview
	card := preview.Format(m.Preview)

	if m.Preview.Adult() && !r.safe(ctx, e.ChannelID, e.GuildID) {
		route = routeBlocked
		card = preview.NSFWCard()

		observability.PreviewsRendered.WithLabelValues(string(m.Preview.Source), observability.OutcomeBlocked).Inc()
	}

	logger.Debug().
		Str(LogFieldSource, string(m.Preview.Source)).
		Str(LogFieldContentID, m.ContentID).
		Str(LogFieldChannelID, e.ChannelID).
		Str(LogFieldRoute, route).
		Msg("replying with preview")

	if err := r.sendReply(e, render(logger, containers(card))); err != nil {
		logger.Error().Err(err).Str(LogFieldChannelID, e.ChannelID).Msg("failed to send preview")
	}

	handled(KindMessage, route)
}

func (r *Router) sendReply(e MessageEvent, components []discordgo.MessageComponent) error {
	// Post even when the source message was deleted while scraping.
	failIfNotExists := false

	_, err := r.session.ChannelMessageSendComplex(e.ChannelID, &discordgo.MessageSend{
		Components: components,
		Flags:      flagsPublic,
		Reference: &discordgo.MessageReference{
			MessageID:       e.ID,
			ChannelID:       e.ChannelID,
			GuildID:         e.GuildID,
			FailIfNotExists: &failIfNotExists,
		},
		AllowedMentions: &discordgo.MessageAllowedMentions{RepliedUser: false},
	})

	return err
}

func (r *Router) handleCommand(ctx context.Context, logger *zerolog.Logger, e CommandEvent) {
	rs := newResponder(r.session, e.Interaction)
	defer r.settle(logger, rs, KindCommand)

	cmdLogger := logger.With().Str(LogFieldCommand, e.Name).Str(LogFieldUserID, e.UserID).Logger()
	cmdLogger.Debug().Msg("handling command")

	if !r.commands.route(ctx, &cmdLogger, rs, e) {
		cmdLogger.Warn().Msg("unknown command")

		if err := rs.replyText(MsgUnknownCommand); err != nil {
			cmdLogger.Error().Err(err).Msg("failed to reply to unknown command")
		}

		handled(KindCommand, routeIgnored)

		return
	}

	handled(KindCommand, routeCommand)
}

func (r *Router) handlePreviewLink(ctx context.Context, logger *zerolog.Logger, rs *responder, e CommandEvent) {
	if e.Target == nil || strings.TrimSpace(e.Target.Content) == "" {
		if err := rs.replyText(MsgNoContent); err != nil {
			logger.Error().Err(err).Msg("failed to reply to empty preview request")
		}

		return
	}

	if err := rs.deferEphemeral(); err != nil {
		logger.Error().Err(err).Msg("failed to defer preview response")
		return
	}

	if err := rs.followup(r.previewLink(ctx, logger, e.Target.Content)); err != nil {
		logger.Error().Err(err).Msg("failed to send preview followup")
	}
}

func (r *Router) previewLink(ctx context.Context, logger *zerolog.Logger, content string) []discordgo.MessageComponent {
	m, ok := r.registry.Find(ctx, content)
	if !ok {
		return render(logger, containers(r.fallbackCard(content)))
	}

	p := m.Preview
	if !p.IsError() {
		p.Components = preview.AppendShareButton(p.Components, p.Source, m.ContentID)
	}

	return render(logger, preview.Components(p))
}

// fallbackCard offers a source choice for a bare gallery number, or lists
// the supported platforms.
func (r *Router) fallbackCard(content string) ui.Container {
	if id := bareGalleryID.FindString(content); id != "" {
		if choices := r.sourceChoices(); len(choices) > 0 {
			return preview.SourceSelectionCard(id, choices)
		}
	}

	return preview.NoLinksCard(r.registry.SupportedPlatforms())
}

func (r *Router) sourceChoices() []preview.SourceChoice {
	out := make([]preview.SourceChoice, 0, len(idSources))

	for _, c := range idSources {
		if _, ok := r.registry.Lookup(c.Source); ok {
			out = append(out, c)
		}
	}

	return out
}

func (r *Router) handleComponent(ctx context.Context, logger *zerolog.Logger, e ComponentEvent) {
	rs := newResponder(r.session, e.Interaction)
	defer r.settle(logger, rs, KindComponent)

	compLogger := logger.With().Str(LogFieldCustomID, e.CustomID).Str(LogFieldUserID, e.UserID).Logger()

	dec, err := preview.Decode(e.CustomID, e.Values...)
	if err != nil {
		compLogger.Debug().Err(err).Msg("ignoring component")
		handled(KindComponent, routeIgnored)

		return
	}

	if dec.Action != nil {
		switch dec.Action.Verb {
		case preview.VerbShare:
			r.handleShare(ctx, &compLogger, rs, e, *dec.Action)
		case preview.VerbIDPreview:
			r.handleIDPreview(ctx, &compLogger, rs, *dec.Action)
		default:
			compLogger.Debug().Msg("ignoring unknown action")
			handled(KindComponent, routeIgnored)
		}

		return
	}

	r.handleNavigation(ctx, &compLogger, rs, *dec.Token)
}

func (r *Router) handleNavigation(ctx context.Context, logger *zerolog.Logger, rs *responder, tok preview.Token) {
	viewer, ok := r.registry.Viewer(tok.Source)
	if !ok {
		logger.Debug().Str(LogFieldSource, string(tok.Source)).Msg("ignoring component for unknown source")
		handled(KindComponent, routeIgnored)

		return
	}

	logger.Debug().
		Str(LogFieldSource, string(tok.Source)).
		Str(LogFieldContentID, tok.ContentID).
		Int(LogFieldPage, tok.TargetPage).
		Msg("navigating")

	p := viewer.View(ctx, tok.ContentID, tok.TargetPage)
	components := render(logger, preview.Components(p))

	var err error
	if tok.Role == preview.RoleInitial {
		err = rs.reply(components, true)
	} else {
		err = rs.update(components)
	}

	if err != nil {
		logger.Error().Err(err).Msg("failed to render page")
	}

	handled(KindComponent, routeNavigate)
}

func (r *Router) handleIDPreview(ctx context.Context, logger *zerolog.Logger, rs *responder, a preview.Action) {
	handled(KindComponent, routeIDPreview)

	p, ok := r.registry.Lookup(a.Source)
	if !ok {
		if err := rs.replyText(MsgUnsupportedSource); err != nil {
			logger.Error().Err(err).Msg("failed to reply to unsupported source")
		}

		return
	}

	res := p.PreviewID(ctx, a.ContentID)
	if err := rs.update(render(logger, preview.Components(res))); err != nil {
		logger.Error().Err(err).Str(LogFieldSource, string(a.Source)).Msg("failed to render id preview")
	}
}

// handleShare posts a freshly fetched preview publicly, then closes the
// private interaction without touching it.
func (r *Router) handleShare(ctx context.Context, logger *zerolog.Logger, rs *responder, e ComponentEvent, a preview.Action) {
	handled(KindComponent, routeShare)

	shareLogger := logger.With().Str(LogFieldSource, string(a.Source)).Str(LogFieldContentID, a.ContentID).Logger()
	shareLogger.Info().Str(LogFieldChannelID, e.ChannelID).Msg("sharing preview publicly")

	p, ok := r.registry.Lookup(a.Source)
	if !ok || e.ChannelID == "" {
		r.shareFailed(&shareLogger, rs)
		return
	}

	res := p.PreviewID(ctx, a.ContentID)
	if res.IsError() {
		shareLogger.Warn().Str("reason", res.Error).Msg("share fetch failed")
		r.shareFailed(&shareLogger, rs)

		return
	}

	if res.Adult() && !r.safe(ctx, e.ChannelID, e.GuildID) {
		observability.PreviewsRendered.WithLabelValues(string(a.Source), observability.OutcomeBlocked).Inc()

		if err := rs.reply(render(&shareLogger, containers(preview.NSFWCard())), true); err != nil {
			shareLogger.Error().Err(err).Msg("failed to send NSFW notice")
		}

		return
	}

	if _, err := r.session.ChannelMessageSendComplex(e.ChannelID, &discordgo.MessageSend{
		Components: render(&shareLogger, preview.Components(res)),
		Flags:      flagsPublic,
	}); err != nil {
		shareLogger.Error().Err(err).Msg("failed to share publicly")
		r.shareFailed(&shareLogger, rs)

		return
	}

	if err := rs.acknowledge(); err != nil {
		shareLogger.Error().Err(err).Msg("failed to acknowledge share")
	}
}

func (r *Router) shareFailed(logger *zerolog.Logger, rs *responder) {
	if err := rs.replyText(MsgShareFailed); err != nil {
		logger.Error().Err(err).Msg("failed to report share failure")
	}
}

// settle recovers a panicking handler and makes sure the interaction gets a
// response.
func (r *Router) settle(logger *zerolog.Logger, rs *responder, kind string) {
	if rec := recover(); rec != nil {
		logger.Error().Interface("panic", rec).Msg("interaction handler panicked")
		handled(kind, routePanic)

		if err := rs.fail(MsgInternalError); err != nil {
			logger.Error().Err(err).Msg("failed to report handler failure")
		}
	}

	rs.finish(logger)
}
