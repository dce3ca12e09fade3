package preview

import (
	"sort"
	"strconv"

	"github.com/meoww-bot/meoww/internal/core/ui"
)

// Navigation button labels.
const (
	LabelFirst    = "⏪"
	LabelPrevious = "⬅️"
	LabelNext     = "➡️"
	LabelLast     = "⏩"
	LabelView     = "📂 View in Discord"
	LabelShare    = "📤 Share Public"

	unknownTotalLabel = "?"
	jumpPlaceholder   = "Jump to page..."
	jumpWindow        = 5
	jumpDeciles       = 10
)

// Pager describes the page state of a gallery view. Current is in the
// gallery's own index space, starting at Base. Total <= 0 means unknown.
type Pager struct {
	Source    Source
	ContentID string
	Current   int
	Total     int
	Base      int
}

// Known reports whether the total page count is known.
func (p Pager) Known() bool {
	return p.Total > 0
}

// Last returns the last page index, or UnknownLastPage.
func (p Pager) Last() int {
	return Destination(RoleLast, p.Current, p.Total, p.Base, 0)
}

// Display returns the 1-based number of the current page.
func (p Pager) Display() int {
	return p.Current - p.Base + 1
}

func (p Pager) token(role Role) string {
	return Token{
		Source:      p.Source,
		ContentID:   p.ContentID,
		TargetPage:  Destination(role, p.Current, p.Total, p.Base, p.Current),
		CurrentPage: p.Current,
		Role:        role,
	}.Encode()
}

// NavigationRow builds the five-button row. It returns false when the
// gallery has a single known page.
func NavigationRow(p Pager) (ui.ActionRow, bool) {
	if p.Known() && p.Total <= 1 {
		return ui.ActionRow{}, false
	}

	atStart := p.Current <= p.Base
	atEnd := p.Known() && p.Current >= p.Base+p.Total-1

	total := unknownTotalLabel
	if p.Known() {
		total = strconv.Itoa(p.Total)
	}

	return ui.Row(
		ui.Button{Style: ui.ButtonSecondary, Label: LabelFirst, CustomID: p.token(RoleFirst), Disabled: atStart},
		ui.Button{Style: ui.ButtonSecondary, Label: LabelPrevious, CustomID: p.token(RolePrevious), Disabled: atStart},
		ui.Button{
			Style:    ui.ButtonSecondary,
			Label:    strconv.Itoa(p.Display()) + " / " + total,
			CustomID: InfoID(p.Source),
			Disabled: true,
		},
		ui.Button{Style: ui.ButtonSecondary, Label: LabelNext, CustomID: p.token(RoleNext), Disabled: atEnd},
		ui.Button{Style: ui.ButtonSecondary, Label: LabelLast, CustomID: p.token(RoleLast), Disabled: atEnd},
	), true
}

// ViewRow builds the row with the button that opens a private viewer at the
// first page.
func ViewRow(source Source, contentID string, base int) ui.ActionRow {
	id := Token{Source: source, ContentID: contentID, TargetPage: base, CurrentPage: 0, Role: RoleInitial}.Encode()

	return ui.Row(ui.Button{Style: ui.ButtonPrimary, Label: LabelView, CustomID: id})
}

// JumpPages returns the 1-based page numbers offered by the jump selector:
// first, last, decile marks and a window around current, deduplicated,
// ascending, at most ui.MaxSelectOptions.
func JumpPages(current, total int) []int {
	if total <= 0 {
		return nil
	}

	seen := make(map[int]bool)

	var pages []int

	add := func(n int) {
		if n < 1 || n > total || seen[n] {
			return
		}

		seen[n] = true
		pages = append(pages, n)
	}

	add(1)
	add(total)

	for k := 1; k < jumpDeciles; k++ {
		add((total*k + jumpDeciles/2) / jumpDeciles)
	}

	for n := current - jumpWindow; n <= current+jumpWindow; n++ {
		add(n)
	}

	sort.Ints(pages)

	for len(pages) > ui.MaxSelectOptions {
		// Drop the entry nearest the middle, keeping both ends.
		mid := len(pages) / 2
		pages = append(pages[:mid], pages[mid+1:]...)
	}

	return pages
}

// JumpRow builds the page-jump selector row. It returns false when the total
// is unknown or smaller than minPages.
func JumpRow(p Pager, minPages int) (ui.ActionRow, bool) {
	if !p.Known() || p.Total < minPages || p.Total <= 1 {
		return ui.ActionRow{}, false
	}

	pages := JumpPages(p.Display(), p.Total)
	options := make([]ui.SelectOption, 0, len(pages))

	for _, n := range pages {
		options = append(options, ui.SelectOption{
			Label:   "Page " + strconv.Itoa(n),
			Value:   strconv.Itoa(n + p.Base - 1),
			Default: n == p.Display(),
		})
	}

	return ui.Row(ui.StringSelect{
		CustomID:    p.token(RoleJump),
		Placeholder: jumpPlaceholder,
		Options:     options,
	}), true
}

// AppendShareButton returns a copy of components with a share button added
// to the first action row that has room, or as a new row otherwise.
func AppendShareButton(components []ui.Component, source Source, contentID string) []ui.Component {
	share := ui.Button{
		Style:    ui.ButtonSuccess,
		Label:    LabelShare,
		CustomID: Action{Verb: VerbShare, Source: source, ContentID: contentID}.Encode(),
	}

	out := make([]ui.Component, len(components))
	copy(out, components)

	for i, c := range out {
		row, ok := c.(ui.ActionRow)
		if !ok || len(row.Children) >= ui.MaxRowElements || hasSelect(row) {
			continue
		}

		children := make([]ui.Component, len(row.Children), len(row.Children)+1)
		copy(children, row.Children)
		out[i] = ui.ActionRow{Children: append(children, share)}

		return out
	}

	return append(out, ui.Row(share))
}

func hasSelect(row ui.ActionRow) bool {
	for _, c := range row.Children {
		if _, ok := c.(ui.StringSelect); ok {
			return true
		}
	}

	return false
}
