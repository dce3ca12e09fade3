package preview

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Identifier layout: positional "source_v_id_target_current_role" for
// navigation, colon "verb:source:id" for one-shot actions.
const (
	positionalSep = "_"
	actionSep     = ":"
	viewVerb      = "v"
	infoSuffix    = "_info"

	// UnknownLastPage is the "last" destination when the total is unknown.
	UnknownLastPage = 999
)

// Token errors.
var (
	ErrEmptyToken     = errors.New("empty identifier")
	ErrMalformedToken = errors.New("malformed identifier")
)

// Role is the navigation intent of a button or select.
type Role string

const (
	RoleFirst    Role = "f"
	RolePrevious Role = "v"
	RoleInfo     Role = "i"
	RoleNext     Role = "n"
	RoleLast     Role = "l"
	RoleJump     Role = "j"
	// RoleInitial opens a new private viewer instead of updating the message.
	RoleInitial Role = "0"
)

// Verb names a colon-scheme action.
type Verb string

const (
	VerbIDPreview Verb = "id_preview"
	VerbShare     Verb = "share_p"
)

// Token is the decoded intent of a navigation identifier.
type Token struct {
	Source      Source
	ContentID   string
	TargetPage  int
	CurrentPage int
	Role        Role
}

// Encode renders t as "source_v_id_target_current_role".
func (t Token) Encode() string {
	return strings.Join([]string{
		string(t.Source),
		viewVerb,
		t.ContentID,
		strconv.Itoa(t.TargetPage),
		strconv.Itoa(t.CurrentPage),
		string(t.Role),
	}, positionalSep)
}

// Action is a decoded colon-scheme identifier.
type Action struct {
	Verb      Verb
	Source    Source
	ContentID string
}

// Encode renders a as "verb:source:id".
func (a Action) Encode() string {
	return strings.Join([]string{string(a.Verb), string(a.Source), a.ContentID}, actionSep)
}

// Decoded is either a navigation Token or an Action.
type Decoded struct {
	Token  *Token
	Action *Action
}

// Decode parses an interaction identifier. Colon identifiers yield an Action,
// everything else is parsed positionally. Select menus pass their chosen
// values, the first of which overrides the target page.
func Decode(customID string, values ...string) (Decoded, error) {
	if customID == "" {
		return Decoded{}, ErrEmptyToken
	}

	if strings.Contains(customID, actionSep) {
		a, err := decodeAction(customID)
		if err != nil {
			return Decoded{}, err
		}

		return Decoded{Action: &a}, nil
	}

	t, err := DecodeToken(customID, values...)
	if err != nil {
		return Decoded{}, err
	}

	return Decoded{Token: &t}, nil
}

func decodeAction(customID string) (Action, error) {
	parts := strings.SplitN(customID, actionSep, 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Action{}, fmt.Errorf("%w: %q", ErrMalformedToken, customID)
	}

	return Action{Verb: Verb(parts[0]), Source: Source(parts[1]), ContentID: parts[2]}, nil
}

// DecodeToken parses a positional identifier. Missing or malformed pages
// default the target to 1; only a missing source or content id is an error.
func DecodeToken(customID string, values ...string) (Token, error) {
	if customID == "" {
		return Token{}, ErrEmptyToken
	}

	if strings.HasSuffix(customID, infoSuffix) {
		return Token{}, fmt.Errorf("%w: %q is an indicator", ErrMalformedToken, customID)
	}

	parts := strings.Split(customID, positionalSep)
	if len(parts) < 3 || parts[0] == "" || parts[1] != viewVerb {
		return Token{}, fmt.Errorf("%w: %q", ErrMalformedToken, customID)
	}

	t := Token{Source: Source(parts[0]), TargetPage: 1}

	var tail []string

	if len(parts) >= 6 {
		// Content ids may contain the separator; the last three fields are fixed.
		t.ContentID = strings.Join(parts[2:len(parts)-3], positionalSep)
		tail = parts[len(parts)-3:]
	} else {
		t.ContentID = parts[2]
		tail = parts[3:]
	}

	if t.ContentID == "" {
		return Token{}, fmt.Errorf("%w: %q has no content id", ErrMalformedToken, customID)
	}

	if len(tail) > 0 {
		if n, err := strconv.Atoi(tail[0]); err == nil {
			t.TargetPage = n
		}
	}

	t.CurrentPage = t.TargetPage
	if len(tail) > 1 {
		if n, err := strconv.Atoi(tail[1]); err == nil {
			t.CurrentPage = n
		}
	}

	if len(tail) > 2 {
		t.Role = Role(tail[2])
	}

	if len(values) > 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(values[0])); err == nil {
			t.TargetPage = n
		}
	}

	return t, nil
}

// InfoID is the identifier of the disabled page indicator for source.
func InfoID(source Source) string {
	return string(source) + infoSuffix
}

// Destination computes the page a role navigates to. base is the first page
// index (0 or 1); total <= 0 means unknown; explicit is the selected page for
// RoleJump.
func Destination(role Role, current, total, base, explicit int) int {
	switch role {
	case RoleFirst, RoleInitial:
		return base
	case RolePrevious:
		return current - 1
	case RoleNext:
		return current + 1
	case RoleLast:
		if total <= 0 {
			return UnknownLastPage
		}

		return base + total - 1
	case RoleJump:
		return explicit
	default:
		return current
	}
}

// Clamp bounds page into [base, base+total-1]. An unknown total only bounds
// from below.
func Clamp(page, total, base int) int {
	if page < base {
		return base
	}

	if total > 0 && page > base+total-1 {
		return base + total - 1
	}

	return page
}
