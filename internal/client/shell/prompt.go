package shell

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/foodsai/internal/models"
)

// Prompter asks for field values line by line.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter reads answers from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Ask prints question and returns the trimmed answer. ok is false at end of
// input.
func (p *Prompter) Ask(question string) (answer string, ok bool) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

// PromptInventoryItem asks for a new item. Empty answers leave optional
// fields unset.
func (p *Prompter) PromptInventoryItem() (models.InventoryItem, error) {
	var item models.InventoryItem
	var ok bool

	if item.Name, ok = p.Ask("Name: "); !ok {
		return item, io.ErrUnexpectedEOF
	}
	qty, ok := p.Ask("Quantity: ")
	if !ok {
		return item, io.ErrUnexpectedEOF
	}
	q, err := strconv.ParseFloat(qty, 64)
	if err != nil {
		return item, fmt.Errorf("invalid quantity %q", qty)
	}
	item.Quantity = q
	if item.Unit, ok = p.Ask("Unit (e.g. pcs, g, ml): "); !ok {
		return item, io.ErrUnexpectedEOF
	}
	if item.Category, ok = p.Ask("Category id: "); !ok {
		return item, io.ErrUnexpectedEOF
	}

	days, ok := p.Ask("Shelf life in days (leave empty if unknown): ")
	if !ok {
		return item, io.ErrUnexpectedEOF
	}
	if days != "" {
		n, err := strconv.Atoi(days)
		if err != nil {
			return item, fmt.Errorf("invalid shelf life %q", days)
		}
		from := time.Now()
		item.ExpirationDays = &n
		item.DateFrom = &from
	}
	return item, nil
}

// PromptRecipe asks for a new recipe. Ingredients and tags are comma
// separated; instructions end at the first empty line.
func (p *Prompter) PromptRecipe() (models.Recipe, error) {
	var r models.Recipe
	var ok bool

	if r.Name, ok = p.Ask("Name: "); !ok {
		return r, io.ErrUnexpectedEOF
	}
	ingredients, ok := p.Ask("Ingredients (comma separated): ")
	if !ok {
		return r, io.ErrUnexpectedEOF
	}
	r.Ingredients = splitList(ingredients)

	fmt.Fprintln(p.out, "Instructions, one step per line, empty line to finish:")
	for {
		step, ok := p.Ask("> ")
		if !ok || step == "" {
			break
		}
		r.Instructions = append(r.Instructions, step)
	}

	minutes, ok := p.Ask("Cooking time in minutes: ")
	if !ok {
		return r, io.ErrUnexpectedEOF
	}
	if minutes != "" {
		n, err := strconv.Atoi(minutes)
		if err != nil {
			return r, fmt.Errorf("invalid cooking time %q", minutes)
		}
		r.CookingTime = n
	}
	difficulty, ok := p.Ask("Difficulty (easy/medium/hard): ")
	if !ok {
		return r, io.ErrUnexpectedEOF
	}
	r.Difficulty = models.Difficulty(difficulty)
	tags, ok := p.Ask("Tags (comma separated): ")
	if !ok {
		return r, io.ErrUnexpectedEOF
	}
	r.Tags = splitList(tags)
	return r, nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
