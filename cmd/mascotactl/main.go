package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dondeestamimascota/mascotas/internal/account"
	"github.com/dondeestamimascota/mascotas/internal/app"
	"github.com/dondeestamimascota/mascotas/internal/config"
	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/dondeestamimascota/mascotas/internal/listing"
	"github.com/dondeestamimascota/mascotas/internal/lock"
	"github.com/dondeestamimascota/mascotas/internal/model"
	"github.com/dondeestamimascota/mascotas/internal/profile"
	"github.com/dondeestamimascota/mascotas/internal/reports"
	"github.com/dondeestamimascota/mascotas/internal/state"
	intsync "github.com/dondeestamimascota/mascotas/internal/sync"
	"go.uber.org/fx"
)

// env is what a command runs against.
type env struct {
	profile     string
	cfg         *config.Config
	jsonOut     bool
	store       *state.Store
	engine      *intsync.Engine
	accounts    *account.Service
	reports     *reports.Service
	checkpoints *intsync.Checkpoints
	restored    *app.Restored
}

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	verbose := flag.Bool("verbose", false, "log to stderr")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Resolve(profile.ConfigPath(), profile.EnvPath())
	if err != nil {
		fatal(err)
	}
	name := profile.Resolve(*profileFlag, cfg.DefaultProfile)
	if err := profile.ValidateName(name); err != nil {
		fatal(err)
	}

	if args[0] == "profiles" {
		if err := cmdProfiles(name, *jsonFlag); err != nil {
			fatal(err)
		}
		return
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	e := &env{profile: name, cfg: cfg, jsonOut: *jsonFlag}
	fxApp := fx.New(
		app.Module(app.Params{Profile: name, Binary: "mascotactl", Config: cfg, Console: *verbose}),
		app.Logger(),
		fx.Populate(&e.store, &e.engine, &e.accounts, &e.reports, &e.checkpoints, &e.restored),
	)
	if err := fxApp.Err(); err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := fxApp.Start(ctx); err != nil {
		fatal(err)
	}
	// Commands run against the restored session, never a half-restored one.
	select {
	case <-e.restored.Done():
	case <-ctx.Done():
	}
	runErr := cmd(ctx, e, args[1:])
	if err := fxApp.Stop(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		fatal(runErr)
	}
}

var commands = map[string]func(context.Context, *env, []string) error{
	"status":     cmdStatus,
	"login":      cmdLogin,
	"logout":     cmdLogout,
	"postings":   cmdPostings,
	"posting":    cmdPosting,
	"sightings":  cmdSightings,
	"transition": cmdTransition,
	"report":     cmdReport,
	"edit":       cmdEdit,
	"delete":     cmdDelete,
	"sighting":   cmdSighting,
	"register":   cmdRegister,
	"profile":    cmdProfile,
	"password":   cmdPassword,
	"recover":    cmdRecover,
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: mascotactl [--profile <name>] [--json] [--verbose] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                          Show profile, login and sync state")
	fmt.Fprintln(os.Stderr, "  login [--email <e>]             Log in (password from MASCOTAS_PASSWORD or stdin)")
	fmt.Fprintln(os.Stderr, "  logout                          Forget the stored session")
	fmt.Fprintln(os.Stderr, "  postings [filters] [--page n]   List postings")
	fmt.Fprintln(os.Stderr, "  posting <id>                    Show one posting")
	fmt.Fprintln(os.Stderr, "  sightings [filters] [--page n]  List sightings, newest first")
	fmt.Fprintln(os.Stderr, "  transition <id> <STATUS> [--yes]  Change a posting's status")
	fmt.Fprintln(os.Stderr, "  report [posting flags]          Publish a lost or found pet")
	fmt.Fprintln(os.Stderr, "  edit <id> [posting flags]       Edit one of your postings")
	fmt.Fprintln(os.Stderr, "  delete <id> --yes               Delete one of your postings")
	fmt.Fprintln(os.Stderr, "  sighting [--posting <id>] [flags]  Report a sighting")
	fmt.Fprintln(os.Stderr, "  register [flags]                Create an account and log in")
	fmt.Fprintln(os.Stderr, "  profile [update [flags]]        Show or edit your profile")
	fmt.Fprintln(os.Stderr, "  password                        Change your password")
	fmt.Fprintln(os.Stderr, "  recover --email <e>             Request a password recovery mail")
	fmt.Fprintln(os.Stderr, "  profiles                        List known profiles")
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// session waits for the stored login to be restored and returns the user id.
func (e *env) session(ctx context.Context) (int64, error) {
	select {
	case <-e.restored.Done():
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	id := e.store.Snapshot().UserID()
	if id == 0 {
		return 0, errors.New("not logged in, run: mascotactl login")
	}
	return id, nil
}

type statusOutput struct {
	Profile       string     `json:"profile"`
	API           string     `json:"api"`
	User          *string    `json:"user"`
	LockedBy      *lock.Info `json:"locked_by,omitempty"`
	Geocoding     int        `json:"geocoding_pending"`
	PostingsSync  *time.Time `json:"postings_synced_at,omitempty"`
	SightingsSync *time.Time `json:"sightings_synced_at,omitempty"`
}

func cmdStatus(ctx context.Context, e *env, _ []string) error {
	out := statusOutput{Profile: e.profile, API: e.cfg.APIBaseURL}
	if _, err := e.session(ctx); err == nil {
		u := e.store.Snapshot().User
		user := fmt.Sprintf("%s %s <%s>", u.Name, u.Surname, u.Email)
		out.User = &user
	}
	info, err := lock.Holder(profile.Dir(e.profile))
	if err != nil {
		return err
	}
	out.LockedBy = info
	out.Geocoding = e.store.Enricher().Pending()
	for key, dst := range map[string]**time.Time{
		intsync.CheckpointPostings:  &out.PostingsSync,
		intsync.CheckpointSightings: &out.SightingsSync,
	} {
		at, err := e.checkpoints.Last(key)
		if err != nil {
			return err
		}
		if !at.IsZero() {
			*dst = &at
		}
	}

	if e.jsonOut {
		outputJSON(out)
		return nil
	}
	fmt.Printf("Profile:   %s\n", out.Profile)
	fmt.Printf("API:       %s\n", out.API)
	if out.User != nil {
		fmt.Printf("User:      %s\n", *out.User)
	} else {
		fmt.Println("User:      (not logged in)")
	}
	if info != nil {
		fmt.Printf("In use by: %s (PID %d) since %s\n", info.Owner, info.PID, info.Since.Format(time.RFC3339))
	}
	fmt.Printf("Postings:  %s\n", syncedAt(out.PostingsSync))
	fmt.Printf("Sightings: %s\n", syncedAt(out.SightingsSync))
	if out.Geocoding > 0 {
		fmt.Printf("Geocoding: %d lookups in flight\n", out.Geocoding)
	}
	return nil
}

func syncedAt(t *time.Time) string {
	if t == nil {
		return "never synced"
	}
	return "synced " + t.Local().Format("2006-01-02 15:04:05")
}

func cmdLogin(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	creds := model.Credentials{Email: *email, Password: os.Getenv("MASCOTAS_PASSWORD")}
	in := bufio.NewReader(os.Stdin)
	if creds.Email == "" {
		creds.Email = prompt(in, "Email: ")
	}
	if creds.Password == "" {
		creds.Password = prompt(in, "Password: ")
	}
	u, err := e.accounts.Login(ctx, creds)
	if err != nil {
		return err
	}
	if e.jsonOut {
		outputJSON(u)
		return nil
	}
	fmt.Printf("Logged in as %s %s (#%d).\n", u.Name, u.Surname, u.ID)
	return nil
}

func prompt(in *bufio.Reader, label string) string {
	fmt.Fprint(os.Stderr, label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func cmdLogout(ctx context.Context, e *env, _ []string) error {
	<-e.restored.Done()
	e.accounts.Logout()
	fmt.Println("Logged out.")
	return nil
}

func cmdPostings(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("postings", flag.ContinueOnError)
	status := fs.String("status", "", "only this status ("+statusNames()+")")
	mine := fs.Bool("mine", false, "only my postings")
	query := fs.String("query", "", "text to look for")
	province := fs.String("province", "", "only this province")
	locality := fs.String("locality", "", "only this locality")
	page := fs.Int("page", 1, "page number")
	perPage := fs.Int("per-page", listing.DefaultPerPage, "postings per page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := listing.PostingFilter{Province: *province, Locality: *locality, Query: *query}
	if *status != "" {
		s, err := lifecycle.Parse(strings.ToUpper(*status))
		if err != nil {
			return err
		}
		filter.Status = s
	}
	if *mine {
		id, err := e.session(ctx)
		if err != nil {
			return err
		}
		filter.AuthorID = id
		if _, err := e.engine.LoadAuthorPostings(ctx, id); err != nil {
			return err
		}
	} else if err := e.engine.LoadPostings(ctx); err != nil {
		return err
	}
	e.store.Wait()
	shown := listing.FilterPostings(e.store.Snapshot().Postings, filter)
	p := listing.Paginate(shown, *page, *perPage)

	if e.jsonOut {
		outputJSON(p)
		return nil
	}
	if p.Total == 0 {
		fmt.Println("No postings found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tLOCATION\tAUTHOR\tCOORDINATES")
	for _, post := range p.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			post.ID, post.Name, post.Status, place(post.Locality, post.Province),
			post.Author.FullName(), coordinates(post.Latitude, post.Longitude))
	}
	_ = w.Flush()
	fmt.Printf("page %d/%d, %d postings\n", p.Number, p.Pages, p.Total)
	return nil
}

func cmdPosting(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: mascotactl posting <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid posting id %q", args[0])
	}
	if _, err := e.engine.LoadPosting(ctx, id); err != nil {
		return err
	}
	e.store.Wait()
	p, ok := e.store.Snapshot().Posting(id)
	if !ok {
		return fmt.Errorf("posting %d not found", id)
	}

	if e.jsonOut {
		outputJSON(p)
		return nil
	}
	fmt.Printf("#%d %s\n", p.ID, p.Name)
	fmt.Printf("Status:      %s (%s)\n", p.Status, lifecycle.Label(p.Status))
	fmt.Printf("Published:   %s\n", p.Date)
	fmt.Printf("Size/color:  %s, %s\n", p.Size, p.Color)
	fmt.Printf("Location:    %s\n", place(p.Locality, p.Province))
	fmt.Printf("Address:     %s %s\n", p.Street, p.Number)
	fmt.Printf("Coordinates: %s\n", coordinates(p.Latitude, p.Longitude))
	fmt.Printf("Author:      %s <%s>\n", p.Author.FullName(), p.Author.Email)
	fmt.Printf("Phone:       %s\n", p.Phone)
	fmt.Printf("\n%s\n", p.Description)
	if len(p.Sightings) > 0 {
		fmt.Printf("\nSightings (%d):\n", len(p.Sightings))
		for _, s := range listing.FilterSightings(p.Sightings, listing.SightingFilter{}) {
			fmt.Printf("  %s %s  %s  %s\n", s.Date, s.Time, place(s.Locality, s.Province), coordinates(s.Latitude, s.Longitude))
		}
	}
	if next := lifecycle.Allowed(p.Status); len(next) > 1 {
		names := make([]string, 0, len(next)-1)
		for _, s := range next[1:] {
			names = append(names, string(s))
		}
		fmt.Printf("\nCan move to: %s\n", strings.Join(names, ", "))
	}
	return nil
}

func cmdSightings(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("sightings", flag.ContinueOnError)
	mine := fs.Bool("mine", false, "only sightings I reported")
	province := fs.String("province", "", "only this province")
	from := fs.String("from", "", "earliest date, YYYY-MM-DD")
	to := fs.String("to", "", "latest date, YYYY-MM-DD")
	page := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := listing.SightingFilter{Province: *province, From: *from, To: *to}
	if *mine {
		id, err := e.session(ctx)
		if err != nil {
			return err
		}
		filter.ReporterID = id
	}
	if err := e.engine.LoadSightings(ctx); err != nil {
		return err
	}
	e.store.Wait()
	p := listing.Paginate(listing.FilterSightings(e.store.Snapshot().Sightings, filter), *page, listing.DefaultPerPage)

	if e.jsonOut {
		outputJSON(p)
		return nil
	}
	if p.Total == 0 {
		fmt.Println("No sightings found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tLOCATION\tPOSTING\tREPORTER\tCOORDINATES")
	for _, s := range p.Items {
		linked := "-"
		if s.Linked() {
			linked = strconv.FormatInt(*s.PostingID, 10)
		}
		fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Date, s.Time, place(s.Locality, s.Province), linked,
			s.Reporter.FullName(), coordinates(s.Latitude, s.Longitude))
	}
	_ = w.Flush()
	fmt.Printf("page %d/%d, %d sightings\n", p.Number, p.Pages, p.Total)
	return nil
}

func cmdTransition(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("transition", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "confirm moving a recovered pet back to lost")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: mascotactl transition <id> <STATUS> [--yes]")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid posting id %q", fs.Arg(0))
	}
	next, err := lifecycle.Parse(strings.ToUpper(fs.Arg(1)))
	if err != nil {
		return err
	}
	if _, err := e.session(ctx); err != nil {
		return err
	}

	cur, err := e.engine.LoadPosting(ctx, id)
	if err != nil {
		return err
	}
	if err := lifecycle.Check(cur.Status, next); err != nil {
		return err
	}
	if lifecycle.RequiresConfirmation(cur.Status, next) && !*yes {
		return fmt.Errorf("posting %d is %s; moving it to %s needs --yes", id, cur.Status, next)
	}
	p, err := e.reports.ChangeStatus(ctx, id, next)
	if err != nil {
		return err
	}
	if e.jsonOut {
		outputJSON(lifecycle.StatusChange{PostingID: p.ID, From: cur.Status, To: p.Status})
		return nil
	}
	fmt.Printf("Posting %d: %s -> %s\n", p.ID, cur.Status, p.Status)
	return nil
}

func cmdProfiles(current string, jsonOut bool) error {
	names, err := profile.List()
	if err != nil {
		return err
	}
	type entry struct {
		Name    string `json:"name"`
		Path    string `json:"path"`
		Current bool   `json:"current"`
		InUse   bool   `json:"in_use"`
	}
	entries := make([]entry, 0, len(names))
	for _, n := range names {
		info, _ := lock.Holder(profile.Dir(n))
		entries = append(entries, entry{Name: n, Path: profile.Dir(n), Current: n == current, InUse: info != nil})
	}
	if jsonOut {
		outputJSON(entries)
		return nil
	}
	if len(entries) == 0 {
		fmt.Println("No profiles found.")
		return nil
	}
	for _, en := range entries {
		mark, use := " ", "idle"
		if en.Current {
			mark = "*"
		}
		if en.InUse {
			use = "in use"
		}
		fmt.Printf("%s %-20s %s (%s)\n", mark, en.Name, en.Path, use)
	}
	return nil
}

func statusNames() string {
	names := make([]string, len(lifecycle.All))
	for i, s := range lifecycle.All {
		names[i] = string(s)
	}
	return strings.Join(names, "|")
}

func place(locality, province string) string {
	if locality == "" {
		return province
	}
	if province == "" {
		return locality
	}
	return locality + ", " + province
}

func coordinates(lat, lon *float64) string {
	if lat == nil || lon == nil {
		return "-"
	}
	return fmt.Sprintf("%.5f,%.5f", *lat, *lon)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
