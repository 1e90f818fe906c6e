// krisha is a terminal client for the Krisha backend: the same session
// store and typed API client the mobile screens use, driven from the
// command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/Iros-07/PhoneKrisha/internal/client"
	"github.com/Iros-07/PhoneKrisha/internal/config"
	"github.com/Iros-07/PhoneKrisha/internal/models"
	"github.com/Iros-07/PhoneKrisha/internal/poll"
	"github.com/Iros-07/PhoneKrisha/internal/session"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg   *config.Config
	api   *client.Client
	store *session.Store
}

func run() error {
	cfg := config.Load()

	flags := pflag.NewFlagSet("krisha", pflag.ExitOnError)
	flags.Usage = func() { printUsage(flags) }
	var configPath string
	flags.StringVar(&configPath, "config", "", "path to YAML config file")
	flags.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "backend base URL")
	flags.StringVar(&cfg.SessionPath, "session", cfg.SessionPath, "path to the session file")
	flags.Parse(os.Args[1:])

	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			return err
		}
	}

	args := flags.Args()
	if len(args) == 0 {
		printUsage(flags)
		return errors.New("command required")
	}

	sessionPath := cfg.SessionPath
	if sessionPath == "" {
		var err error
		sessionPath, err = session.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolve session path: %w", err)
		}
	}

	a := &app{
		cfg:   cfg,
		api:   client.New(cfg.BaseURL),
		store: session.NewStore(sessionPath),
	}
	a.store.Restore()

	ctx := context.Background()

	switch args[0] {
	case "register":
		return a.register(ctx, args[1:])
	case "login":
		return a.login(ctx, args[1:])
	case "guest":
		return a.store.ContinueAsGuest()
	case "logout":
		return a.store.Logout()
	case "whoami":
		return a.whoami(ctx)
	case "ads":
		return a.ads(ctx, args[1:])
	case "fav":
		return a.fav(ctx, args[1:])
	case "chat":
		return a.chat(ctx, args[1:])
	default:
		printUsage(flags)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage(flags *pflag.FlagSet) {
	fmt.Fprintln(os.Stderr, `Usage: krisha [flags] <command>

Commands:
  register <fio> <phone> <email> <password>
  login <email> <password>
  guest
  logout
  whoami
  ads list [filter flags] | ads get <id> | ads add [flags] | ads delete <id>
  fav list | fav add <ad-id> | fav rm <ad-id>
  chat partners | chat history <peer-id> | chat send <peer-id> <text> | chat watch <peer-id>

Flags:`)
	flags.PrintDefaults()
}

// currentUserID enforces the guest-mode restriction: favorites,
// messaging and ad management need a signed-in user.
func (a *app) currentUserID() (int, error) {
	sess := a.store.Current()
	if sess.UserID == nil {
		if sess.IsGuest {
			return 0, errors.New("not available in guest mode, log in first")
		}
		return 0, errors.New("not logged in")
	}
	return *sess.UserID, nil
}

func (a *app) register(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return errors.New("usage: register <fio> <phone> <email> <password>")
	}
	user, err := a.api.Register(ctx, args[0], args[1], args[2], args[3])
	if err != nil {
		return err
	}
	if err := a.store.LoginAs(user.ID); err != nil {
		return err
	}
	fmt.Printf("registered and logged in as %s (id %d)\n", user.FIO, user.ID)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: login <email> <password>")
	}
	user, err := a.api.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if err := a.store.LoginAs(user.ID); err != nil {
		return err
	}
	fmt.Printf("logged in as %s (id %d)\n", user.FIO, user.ID)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	sess := a.store.Current()
	switch {
	case sess.UserID != nil:
		user, err := a.api.GetUser(ctx, *sess.UserID)
		if err != nil {
			return err
		}
		fmt.Printf("%d\t%s\t%s\t%s\n", user.ID, user.FIO, user.Phone, user.Email)
	case sess.IsGuest:
		fmt.Println("guest")
	default:
		fmt.Println("not logged in")
	}
	return nil
}

func (a *app) ads(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: ads list|get|add|delete")
	}

	switch args[0] {
	case "list":
		flags := pflag.NewFlagSet("ads list", pflag.ExitOnError)
		var filter models.AdFilter
		flags.StringVar(&filter.Title, "title", "", "title substring")
		flags.StringVar(&filter.City, "city", "", "city")
		flags.StringVar(&filter.AdType, "type", "", "ad type")
		flags.StringVar(&filter.HouseType, "house-type", "", "house type")
		flags.StringVar(&filter.Complex, "complex", "", "complex name substring")
		rooms := flags.Int("rooms", 0, "room count")
		priceMin := flags.Int64("price-min", 0, "minimum price")
		priceMax := flags.Int64("price-max", 0, "maximum price")
		flags.Parse(args[1:])
		if flags.Changed("rooms") {
			filter.Rooms = rooms
		}
		if flags.Changed("price-min") {
			filter.PriceMin = priceMin
		}
		if flags.Changed("price-max") {
			filter.PriceMax = priceMax
		}

		ads, err := a.api.ListAds(ctx, &filter)
		if err != nil {
			return err
		}
		printAds(ads)
		return nil

	case "get":
		id, err := argID(args, 1, "ads get <id>")
		if err != nil {
			return err
		}
		ad, err := a.api.GetAd(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("#%d %s, %d ₸\n%s, %s\n%d rooms, %.1f m², floor %d/%d, built %d\n",
			ad.ID, ad.Title, ad.Price, ad.City, ad.Address,
			ad.Rooms, ad.Area, ad.Floor, ad.FloorsInHouse, ad.YearBuilt)
		if ad.Description != "" {
			fmt.Println(ad.Description)
		}
		for _, p := range ad.Photos {
			fmt.Println(p)
		}
		return nil

	case "add":
		userID, err := a.currentUserID()
		if err != nil {
			return err
		}
		flags := pflag.NewFlagSet("ads add", pflag.ExitOnError)
		ad := models.Ad{UserID: userID}
		flags.StringVar(&ad.Title, "title", "", "listing title")
		flags.StringVar(&ad.Description, "description", "", "description")
		flags.StringVar(&ad.City, "city", "", "city")
		flags.StringVar(&ad.Address, "address", "", "street address")
		flags.StringVar(&ad.AdType, "type", "", "ad type (sale/rent)")
		flags.StringVar(&ad.HouseType, "house-type", "", "house type")
		flags.StringVar(&ad.Complex, "complex", "", "residential complex")
		flags.IntVar(&ad.Rooms, "rooms", 0, "room count")
		flags.IntVar(&ad.Floor, "floor", 0, "floor")
		flags.IntVar(&ad.FloorsInHouse, "floors", 0, "floors in building")
		flags.IntVar(&ad.YearBuilt, "year", 0, "year built")
		flags.Int64Var(&ad.Price, "price", 0, "price")
		flags.Float64Var(&ad.Area, "area", 0, "area in m²")
		photos := flags.StringSlice("photo", nil, "photo file to upload (repeatable)")
		flags.Parse(args[1:])

		for _, path := range *photos {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			url, err := a.api.UploadPhoto(ctx, f.Name(), f)
			f.Close()
			if err != nil {
				return err
			}
			ad.Photos = append(ad.Photos, url)
		}

		if err := a.api.CreateAd(ctx, &ad); err != nil {
			return err
		}
		fmt.Println("ad created")
		return nil

	case "delete":
		if _, err := a.currentUserID(); err != nil {
			return err
		}
		id, err := argID(args, 1, "ads delete <id>")
		if err != nil {
			return err
		}
		if err := a.api.DeleteAd(ctx, id); err != nil {
			return err
		}
		fmt.Println("ad deleted")
		return nil

	default:
		return fmt.Errorf("unknown ads subcommand %q", args[0])
	}
}

func (a *app) fav(ctx context.Context, args []string) error {
	userID, err := a.currentUserID()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.New("usage: fav list|add|rm")
	}

	switch args[0] {
	case "list":
		ads, err := a.api.ListFavorites(ctx, userID)
		if err != nil {
			return err
		}
		printAds(ads)
		return nil
	case "add":
		id, err := argID(args, 1, "fav add <ad-id>")
		if err != nil {
			return err
		}
		return a.api.AddFavorite(ctx, userID, id)
	case "rm":
		id, err := argID(args, 1, "fav rm <ad-id>")
		if err != nil {
			return err
		}
		return a.api.RemoveFavorite(ctx, userID, id)
	default:
		return fmt.Errorf("unknown fav subcommand %q", args[0])
	}
}

func (a *app) chat(ctx context.Context, args []string) error {
	userID, err := a.currentUserID()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.New("usage: chat partners|history|send|watch")
	}

	switch args[0] {
	case "partners":
		partners, err := a.api.ListConversations(ctx, userID)
		if err != nil {
			return err
		}
		for _, p := range partners {
			fmt.Printf("%d\t%s\t%s\t%s\n", p.PartnerID, p.PartnerName, p.LastMessage, p.Timestamp)
		}
		return nil

	case "history":
		peer, err := argID(args, 1, "chat history <peer-id>")
		if err != nil {
			return err
		}
		msgs, err := a.api.ListMessages(ctx, userID, peer)
		if err != nil {
			return err
		}
		printMessages(msgs, userID)
		return nil

	case "send":
		peer, err := argID(args, 1, "chat send <peer-id> <text>")
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return errors.New("usage: chat send <peer-id> <text>")
		}
		text := strings.Join(args[2:], " ")
		return a.api.SendMessage(ctx, userID, peer, text)

	case "watch":
		peer, err := argID(args, 1, "chat watch <peer-id>")
		if err != nil {
			return err
		}
		return a.watch(ctx, userID, peer)

	default:
		return fmt.Errorf("unknown chat subcommand %q", args[0])
	}
}

// watch polls the conversation until interrupted, printing messages as
// they arrive.
func (a *app) watch(ctx context.Context, userID, peer int) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lastID := 0
	p := poll.New(a.cfg.PollInterval, func(ctx context.Context) {
		msgs, err := a.api.ListMessages(ctx, userID, peer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "poll: %v\n", err)
			return
		}
		for _, m := range msgs {
			if m.ID > lastID {
				printMessage(m, userID)
				lastID = m.ID
			}
		}
	})

	p.Start(ctx)
	<-ctx.Done()
	p.Stop()
	return nil
}

func printAds(ads []models.Ad) {
	for _, ad := range ads {
		fmt.Printf("%d\t%s\t%s\t%d rooms\t%d ₸\n", ad.ID, ad.Title, ad.City, ad.Rooms, ad.Price)
	}
}

func printMessages(msgs []models.Message, userID int) {
	for _, m := range msgs {
		printMessage(m, userID)
	}
}

func printMessage(m models.Message, userID int) {
	direction := "<-"
	if m.FromUserID == userID {
		direction = "->"
	}
	fmt.Printf("%s %s %s\n", m.Timestamp, direction, m.Text)
}

func argID(args []string, idx int, usage string) (int, error) {
	if len(args) <= idx {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	id, err := strconv.Atoi(args[idx])
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[idx])
	}
	return id, nil
}
