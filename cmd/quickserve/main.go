package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/quickserve/quickserve-go/internal/api"
	"github.com/quickserve/quickserve-go/internal/config"
	"github.com/quickserve/quickserve-go/internal/logger"
	"github.com/quickserve/quickserve-go/internal/models"
	"github.com/quickserve/quickserve-go/internal/session"
)

// app bundles what every subcommand needs.
type app struct {
	cfg     *config.Config
	session *session.Store
	client  *api.Client
	log     logrus.FieldLogger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fatalf("failed to load configuration: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.SetTextFormatter()

	sess := session.NewStore(cfg.SessionPath)
	a := &app{
		cfg:     cfg,
		session: sess,
		client:  api.New(cfg.APIBaseURL, sess, cfg.HTTPTimeout, logrus.StandardLogger()),
		log:     logrus.StandardLogger(),
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	if err := a.dispatch(ctx, cmd, args); err != nil {
		fatalf("%v", err)
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "signup":
		return a.cmdSignup(ctx, args)
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		return a.cmdLogout(ctx)
	case "whoami":
		return a.cmdWhoami()
	case "me":
		return a.cmdMe(ctx)
	case "nearby":
		return a.cmdNearby(ctx, args)
	case "request":
		return a.cmdRequest(ctx, args)
	case "watch":
		return a.cmdWatch(ctx)
	case "incoming":
		return a.cmdIncoming(ctx)
	case "history":
		return a.cmdHistory(ctx, args)
	case "job":
		return a.cmdJob(ctx, args)
	case "accept":
		return a.cmdAccept(ctx, args)
	case "reject":
		return a.cmdReject(ctx, args)
	case "availability":
		return a.cmdAvailability(ctx, args)
	case "broadcast":
		return a.cmdBroadcast(ctx)
	case "kyc":
		return a.cmdKyc(ctx, args)
	case "admin":
		return a.cmdAdmin(ctx, args)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// require gates a command to one role, printing the login hint the web
// client used to encode in its redirect.
func (a *app) require(role, attempted string) error {
	return a.session.Require(role, attempted)
}

func (a *app) cmdWhoami() error {
	current := a.session.Current()
	if !current.LoggedIn() {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("logged in as %s\n", current.Role)
	return nil
}

func usage() {
	fmt.Fprint(os.Stderr, `quickserve - home services from the terminal

Account:
  signup -role customer|provider -name NAME -email EMAIL -password PW [-service TYPE] [-price N]
  login -role customer|provider|admin -email EMAIL -password PW
  logout
  whoami
  me

Customer:
  nearby [-service TYPE] [-limit N]
  request create -title T -service TYPE [-address A] [-description D] [-budget N] [-image FILE] [-lat N -lng N]
  request list | get ID | cancel ID | assign ID PROVIDER_ID
  watch

Provider:
  incoming | history [-limit N] | job [ID]
  accept ID | reject ID
  job -set ID STATUS            (en_route, arrived, payment, completed)
  availability -online true|false [-days mon,tue,...] [-start HH:MM] [-end HH:MM]
  broadcast                     (reads "LAT LNG" lines from stdin)
  kyc status | kyc upload -id-number N -id-proof FILE [-address-proof FILE] [-photo FILE] [-address LINE]
  watch

Admin:
  admin stats | kyc [-status S] | kyc get ID | kyc approve ID | kyc reject ID [-reason R]
  admin providers | customers | requests [-status S] | reports | resolve ID
  admin settings [get|set -name N -email E -commission N]
  watch
`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "quickserve: "+format+"\n", args...)
	os.Exit(1)
}

// printRequest renders one request line with its badge, the same status to
// label and action mapping every dashboard uses.
func printRequest(req models.Request, role string) {
	badge := models.BadgeFor(req.Status, role)
	line := fmt.Sprintf("#%d [%s] %s (%s)", req.ID, badge.Label, req.Title, req.ServiceType)
	if req.Budget != nil {
		line += fmt.Sprintf(" budget=%.0f", *req.Budget)
	}
	if req.Address != "" {
		line += " at " + req.Address
	}
	fmt.Println(line)
	if len(badge.Actions) > 0 {
		fmt.Printf("   actions: %v\n", badge.Actions)
	}
}

func printRequests(items []models.Request, role string) {
	if len(items) == 0 {
		fmt.Println("nothing here yet")
		return
	}
	for _, req := range items {
		printRequest(req, role)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs
}
