package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/quickserve/quickserve-go/internal/api"
	"github.com/quickserve/quickserve-go/internal/models"
)

func (a *app) cmdSignup(ctx context.Context, args []string) error {
	fs := newFlagSet("signup")
	role := fs.String("role", models.RoleCustomer, "customer or provider")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	service := fs.String("service", "", "service type (providers)")
	price := fs.Float64("price", 0, "base price (providers)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := api.SignupInput{
		FullName:    *name,
		Email:       *email,
		Password:    *password,
		Role:        *role,
		ServiceType: *service,
	}
	if *price > 0 {
		in.BasePrice = price
	}

	user, err := a.client.Signup(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("account #%d created for %s, now log in\n", user.ID, user.Email)
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	role := fs.String("role", "", "expected role, refuses a mismatching account")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	got, err := a.client.Login(ctx, *email, *password, *role)
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s\n", got)
	return nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

// cmdMe shows the profile of whoever is logged in.
func (a *app) cmdMe(ctx context.Context) error {
	switch a.session.Role() {
	case models.RoleCustomer:
		me, err := a.client.CustomerMe(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s>\n", me.User.FullName, me.User.Email)
		fmt.Printf("requests: %d active, %d completed, %d total\n",
			me.Stats.Active, me.Stats.Completed, me.Stats.Total)
		return nil
	case models.RoleProvider:
		me, err := a.client.ProviderMe(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s> | %s, base price %.0f\n",
			me.User.FullName, me.User.Email, me.Provider.ServiceType, me.Provider.BasePrice)
		fmt.Printf("online: %v, kyc: %s\n", me.Provider.IsOnline, me.Provider.KycStatus)
		return nil
	default:
		return a.require(models.RoleCustomer, "/me")
	}
}

func (a *app) cmdNearby(ctx context.Context, args []string) error {
	if err := a.require(models.RoleCustomer, "/customer/nearby"); err != nil {
		return err
	}

	fs := newFlagSet("nearby")
	service := fs.String("service", "", "filter by service type")
	limit := fs.Int("limit", 20, "max results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	items, err := a.client.NearbyProviders(ctx, *service, *limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no providers online right now")
		return nil
	}
	for _, p := range items {
		fmt.Printf("#%d %s (%s) rating %.1f, %d jobs, est %.0f-%.0f\n",
			p.ProviderID, p.Name, p.Area, p.Rating, p.Jobs, p.EstMin, p.EstMax)
	}
	return nil
}

func (a *app) cmdRequest(ctx context.Context, args []string) error {
	if err := a.require(models.RoleCustomer, "/customer/requests"); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("request needs a subcommand: create, list, get, cancel, assign")
	}

	switch sub, rest := args[0], args[1:]; sub {
	case "create":
		return a.createRequest(ctx, rest)
	case "list":
		items, err := a.client.MyRequests(ctx, 50, 0)
		if err != nil {
			return err
		}
		printRequests(items, models.RoleCustomer)
		return nil
	case "get":
		id, err := argID(rest)
		if err != nil {
			return err
		}
		req, err := a.client.Request(ctx, id)
		if err != nil {
			return err
		}
		printRequest(*req, models.RoleCustomer)
		return nil
	case "cancel":
		id, err := argID(rest)
		if err != nil {
			return err
		}
		req, err := a.client.CancelRequest(ctx, id)
		if err != nil {
			return err
		}
		printRequest(*req, models.RoleCustomer)
		return nil
	case "assign":
		if len(rest) < 2 {
			return fmt.Errorf("usage: request assign REQUEST_ID PROVIDER_ID")
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bad request id %q", rest[0])
		}
		providerID, err := strconv.ParseInt(rest[1], 10, 64)
		if err != nil {
			return fmt.Errorf("bad provider id %q", rest[1])
		}
		req, err := a.client.AssignProvider(ctx, id, providerID)
		if err != nil {
			return err
		}
		fmt.Println("provider assigned, waiting for them to accept")
		printRequest(*req, models.RoleCustomer)
		return nil
	default:
		return fmt.Errorf("unknown request subcommand %q", sub)
	}
}

func (a *app) createRequest(ctx context.Context, args []string) error {
	fs := newFlagSet("request create")
	title := fs.String("title", "", "short problem summary")
	service := fs.String("service", "", "service type")
	address := fs.String("address", "", "where the work is")
	description := fs.String("description", "", "details")
	budget := fs.Float64("budget", 0, "expected budget")
	image := fs.String("image", "", "photo of the problem, fills the form via analysis")
	lat := fs.Float64("lat", 0, "latitude, resolves the address when set")
	lng := fs.Float64("lng", 0, "longitude")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := models.RequestCreate{
		Title:       *title,
		ServiceType: *service,
		Address:     *address,
		Description: *description,
	}
	if *budget > 0 {
		in.Budget = budget
	}

	// The smart form: a photo suggests the type, title and description;
	// explicit flags always win.
	if *image != "" {
		analysis, err := a.client.AnalyzeImage(ctx, *image)
		if err != nil {
			return err
		}
		if in.ServiceType == "" {
			in.ServiceType = analysis.ServiceType
		}
		if in.Title == "" {
			in.Title = analysis.Title
		}
		if in.Description == "" {
			in.Description = analysis.Description
		}
	}
	if *lat != 0 || *lng != 0 {
		in.CustomerLat, in.CustomerLng = lat, lng
		if in.Address == "" {
			if loc, err := a.client.ReverseGeocode(ctx, *lat, *lng); err == nil {
				in.Address = loc.Address + ", " + loc.City
			}
		}
	}

	req, err := a.client.CreateRequest(ctx, in)
	if err != nil {
		return err
	}
	fmt.Println("request created, pick a provider with: quickserve nearby")
	printRequest(*req, models.RoleCustomer)
	return nil
}

func argID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("an id argument is required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad id %q", args[0])
	}
	return id, nil
}
