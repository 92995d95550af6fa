// Package shell is an interactive command line over the local store.
package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/atinyakov/foodsai/internal/models"
	"github.com/atinyakov/foodsai/internal/session"
)

// Service is the part of the database facade the shell uses.
type Service interface {
	AddInventoryItem(ctx context.Context, item models.InventoryItem) (models.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id string) (*models.InventoryItem, error)
	GetInventoryItems(ctx context.Context) ([]models.InventoryItem, error)
	SearchInventory(ctx context.Context, query string) ([]models.InventoryItem, error)
	GetExpiringItems(ctx context.Context, days int) ([]models.InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, id string) error
	ConsumeInventoryItem(ctx context.Context, id string, quantity float64, notes *string) (*models.InventoryItem, models.ConsumptionHistory, error)
	AddRecipe(ctx context.Context, r models.Recipe) (models.Recipe, error)
	GetRecipes(ctx context.Context) ([]models.Recipe, error)
	ConsumeRecipe(ctx context.Context, id string, servings float64, notes *string) (models.ConsumptionHistory, error)
	ExportData(ctx context.Context) (models.Snapshot, error)
	ImportData(ctx context.Context, snap models.Snapshot) error
}

// Sessions is the part of the session manager the shell uses.
type Sessions interface {
	Status() session.Status
	EnterGuestMode(ctx context.Context) (models.GuestUser, error)
	Strategy(name string) (session.Strategy, bool)
	Login(ctx context.Context, s session.Strategy, c session.Credentials) (session.Pending, error)
	CompleteAuth(ctx context.Context, s session.Strategy, p session.Pending, code string) (models.AuthUser, error)
	Logout(ctx context.Context) error
	MigrateToAuthenticatedUser(ctx context.Context, user models.AuthUser, token models.AuthToken) (models.PendingMigration, error)
}

const help = `Available commands:
  status                      show the session
  guest                       start or resume guest mode
  login <email>               log in with a mailed code
  migrate                     move guest data to the logged in account
  logout
  add                         add an inventory item
  list [query]                list or search inventory
  get <id>
  consume <id> <quantity>
  delete <id>
  expiring [days]
  recipe                      add a recipe
  recipes
  cook <recipe-id> <servings>
  export <file>
  import <file>
  exit`

// Shell runs the command loop.
type Shell struct {
	Service  Service
	Sessions Sessions
	prompt   *Prompter
	out      io.Writer
}

// New returns a shell reading commands from in and writing to out.
func New(svc Service, sessions Sessions, in io.Reader, out io.Writer) *Shell {
	return &Shell{Service: svc, Sessions: sessions, prompt: NewPrompter(in, out), out: out}
}

// Run reads commands until exit, end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) {
	for ctx.Err() == nil {
		line, ok := s.prompt.Ask("foodsai> ")
		if !ok {
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			fmt.Fprintln(s.out, "Bye")
			return
		}
		if err := s.exec(ctx, args); err != nil {
			fmt.Fprintln(s.out, "Error:", err)
		}
	}
}

var errUsage = errors.New("wrong arguments, type 'help'")

func (s *Shell) exec(ctx context.Context, args []string) error {
	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, help)
	case "status":
		return s.print(s.Sessions.Status())
	case "guest":
		g, err := s.Sessions.EnterGuestMode(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Guest mode active (%s)\n", g.ID)
	case "login":
		if len(args) < 2 {
			return errUsage
		}
		return s.login(ctx, args[1])
	case "migrate":
		m, err := s.Sessions.MigrateToAuthenticatedUser(ctx, models.AuthUser{}, models.AuthToken{})
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Migration %s %s\n", m.ID, m.Status)
	case "logout":
		return s.Sessions.Logout(ctx)
	case "add":
		item, err := s.prompt.PromptInventoryItem()
		if err != nil {
			return err
		}
		saved, err := s.Service.AddInventoryItem(ctx, item)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Stored %s: %g %s\n", saved.ID, saved.Quantity, saved.Unit)
	case "list":
		var (
			items []models.InventoryItem
			err   error
		)
		if len(args) > 1 {
			items, err = s.Service.SearchInventory(ctx, strings.Join(args[1:], " "))
		} else {
			items, err = s.Service.GetInventoryItems(ctx)
		}
		if err != nil {
			return err
		}
		s.listItems(items)
	case "get":
		if len(args) < 2 {
			return errUsage
		}
		item, err := s.Service.GetInventoryItem(ctx, args[1])
		if err != nil {
			return err
		}
		if item == nil {
			fmt.Fprintln(s.out, "Item not found")
			return nil
		}
		return s.print(item)
	case "consume":
		if len(args) < 3 {
			return errUsage
		}
		q, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return errUsage
		}
		left, _, err := s.Service.ConsumeInventoryItem(ctx, args[1], q, nil)
		if err != nil {
			return err
		}
		if left == nil {
			fmt.Fprintln(s.out, "Used up")
		} else {
			fmt.Fprintf(s.out, "%g %s left\n", left.Quantity, left.Unit)
		}
	case "delete":
		if len(args) < 2 {
			return errUsage
		}
		if err := s.Service.DeleteInventoryItem(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Item deleted")
	case "expiring":
		days := 7
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return errUsage
			}
			days = n
		}
		items, err := s.Service.GetExpiringItems(ctx, days)
		if err != nil {
			return err
		}
		s.listItems(items)
	case "recipe":
		r, err := s.prompt.PromptRecipe()
		if err != nil {
			return err
		}
		saved, err := s.Service.AddRecipe(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Stored recipe %s\n", saved.ID)
	case "recipes":
		recipes, err := s.Service.GetRecipes(ctx)
		if err != nil {
			return err
		}
		for _, r := range recipes {
			fmt.Fprintf(s.out, "%s  %s (%s, %d min)\n", r.ID, r.Name, r.Difficulty, r.CookingTime)
		}
	case "cook":
		if len(args) < 3 {
			return errUsage
		}
		n, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return errUsage
		}
		if _, err := s.Service.ConsumeRecipe(ctx, args[1], n, nil); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Enjoy")
	case "export":
		if len(args) < 2 {
			return errUsage
		}
		return s.export(ctx, args[1])
	case "import":
		if len(args) < 2 {
			return errUsage
		}
		return s.importFile(ctx, args[1])
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

func (s *Shell) login(ctx context.Context, email string) error {
	strategy, ok := s.Sessions.Strategy("email")
	if !ok {
		return session.ErrUnsupported
	}
	p, err := s.Sessions.Login(ctx, strategy, session.Credentials{Email: email})
	if err != nil {
		return err
	}
	code, ok := s.prompt.Ask("Code from the email: ")
	if !ok {
		return io.ErrUnexpectedEOF
	}
	u, err := s.Sessions.CompleteAuth(ctx, strategy, p, code)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Logged in as %s\n", u.Email)
	return nil
}

func (s *Shell) export(ctx context.Context, path string) error {
	snap, err := s.Service.ExportData(ctx)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Exported to %s\n", path)
	return nil
}

func (s *Shell) importFile(ctx context.Context, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snap models.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := s.Service.ImportData(ctx, snap); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Import complete")
	return nil
}

func (s *Shell) listItems(items []models.InventoryItem) {
	if len(items) == 0 {
		fmt.Fprintln(s.out, "Nothing here")
		return
	}
	for _, it := range items {
		line := fmt.Sprintf("%s  %s  %g %s", it.ID, it.Name, it.Quantity, it.Unit)
		if exp, ok := it.ExpiresAt(); ok {
			line += "  expires " + exp.Format("2006-01-02")
		}
		fmt.Fprintln(s.out, line)
	}
}

func (s *Shell) print(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, string(b))
	return nil
}
