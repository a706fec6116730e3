package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bobmcallan/folio/internal/models"
)

type formKind int

const (
	formAmount formKind = iota
	formPurchase
)

// form edits one position: its amount, or a new purchase lot
type form struct {
	kind   formKind
	index  int
	title  string
	labels []string
	inputs []textinput.Model
	focus  int
	err    string
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 32
	ti.Width = 24
	ti.Prompt = "› "
	return ti
}

func newAmountForm(index int, name string) *form {
	f := &form{
		kind:   formAmount,
		index:  index,
		title:  "Edit amount: " + name,
		labels: []string{"Amount"},
		inputs: []textinput.Model{newInput("0.00")},
	}
	f.inputs[0].Focus()
	return f
}

func newPurchaseForm(index int, name, today string) *form {
	f := &form{
		kind:   formPurchase,
		index:  index,
		title:  "Add purchase: " + name,
		labels: []string{"Date", "Quantity", "Price", "Fees"},
		inputs: []textinput.Model{
			newInput("YYYY-MM-DD"),
			newInput("0"),
			newInput("blank = backfill"),
			newInput("optional"),
		},
	}
	f.inputs[0].SetValue(today)
	f.inputs[0].Focus()
	return f
}

func (f *form) setFocus(i int) tea.Cmd {
	n := len(f.inputs)
	f.focus = ((i % n) + n) % n
	var cmd tea.Cmd
	for j := range f.inputs {
		if j == f.focus {
			cmd = f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	return cmd
}

// update handles a key; submitted is true once the input validated
func (f *form) update(msg tea.KeyMsg) (cmd tea.Cmd, submitted, cancelled bool) {
	switch {
	case key.Matches(msg, formKeys.Cancel):
		return nil, false, true
	case key.Matches(msg, formKeys.Next):
		return f.setFocus(f.focus + 1), false, false
	case key.Matches(msg, formKeys.Prev):
		return f.setFocus(f.focus - 1), false, false
	case key.Matches(msg, formKeys.Submit):
		if err := f.validate(); err != nil {
			f.err = err.Error()
			return nil, false, false
		}
		return nil, true, false
	}
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd, false, false
}

func (f *form) validate() error {
	switch f.kind {
	case formAmount:
		_, err := models.ValidateAmountInput(f.inputs[0].Value())
		return err
	case formPurchase:
		_, err := f.purchase()
		return err
	}
	return errors.New("unknown form")
}

func (f *form) amount() (float64, error) {
	return models.ValidateAmountInput(f.inputs[0].Value())
}

func (f *form) purchase() (models.Purchase, error) {
	return models.ValidatePurchaseInput(
		f.inputs[0].Value(),
		f.inputs[1].Value(),
		f.inputs[2].Value(),
		f.inputs[3].Value(),
	)
}

func (f *form) view(h string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.title))
	b.WriteString("\n\n")
	for i, in := range f.inputs {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-9s", f.labels[i])), in.View()))
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render(f.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(h)
	return panelStyle.BorderForeground(theme.Primary).Render(b.String())
}
