package main

import (
	"context"
	"fmt"

	"github.com/quickserve/quickserve-go/internal/models"
)

func (a *app) cmdAdmin(ctx context.Context, args []string) error {
	if err := a.require(models.RoleAdmin, "/admin"); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("admin needs a subcommand: stats, kyc, providers, customers, requests, reports, resolve, settings")
	}

	switch sub, rest := args[0], args[1:]; sub {
	case "stats":
		return a.adminStats(ctx)
	case "kyc":
		return a.adminKyc(ctx, rest)
	case "providers":
		return a.adminProviders(ctx, rest)
	case "customers":
		return a.adminCustomers(ctx, rest)
	case "requests":
		return a.adminRequests(ctx, rest)
	case "reports":
		return a.adminReports(ctx)
	case "resolve":
		id, err := argID(rest)
		if err != nil {
			return err
		}
		if err := a.client.ResolveReport(ctx, id); err != nil {
			return err
		}
		fmt.Println("report resolved")
		return nil
	case "settings":
		return a.adminSettings(ctx, rest)
	default:
		return fmt.Errorf("unknown admin subcommand %q", sub)
	}
}

func (a *app) adminStats(ctx context.Context) error {
	stats, err := a.client.AdminStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("pending kyc:      %d\n", stats.PendingKyc)
	fmt.Printf("providers:        %d (%d online)\n", stats.TotalProviders, stats.OnlineProviders)
	fmt.Printf("customers:        %d\n", stats.TotalCustomers)
	fmt.Printf("requests:         %d\n", stats.TotalRequests)
	fmt.Printf("open reports:     %d\n", stats.OpenReports)
	return nil
}

func (a *app) adminKyc(ctx context.Context, args []string) error {
	if len(args) > 0 {
		switch sub, rest := args[0], args[1:]; sub {
		case "get":
			id, err := argID(rest)
			if err != nil {
				return err
			}
			detail, err := a.client.KycDetail(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s> | %s\n", detail.User.FullName, detail.User.Email, detail.Provider.ServiceType)
			fmt.Printf("status: %s, id number: %s\n", detail.Kyc.Status, detail.Kyc.IDNumber)
			if detail.Kyc.IDProofURL != "" {
				fmt.Printf("id proof: %s\n", detail.Kyc.IDProofURL)
			}
			if detail.Kyc.RejectionReason != "" {
				fmt.Printf("rejected: %s\n", detail.Kyc.RejectionReason)
			}
			return nil
		case "approve":
			id, err := argID(rest)
			if err != nil {
				return err
			}
			if err := a.client.ApproveKyc(ctx, id); err != nil {
				return err
			}
			fmt.Println("approved, the provider can go online now")
			return nil
		case "reject":
			fs := newFlagSet("admin kyc reject")
			reason := fs.String("reason", "", "why the documents were refused")
			id, err := argID(rest)
			if err != nil {
				return err
			}
			if err := fs.Parse(rest[1:]); err != nil {
				return err
			}
			if err := a.client.RejectKyc(ctx, id, *reason); err != nil {
				return err
			}
			fmt.Println("rejected")
			return nil
		}
	}

	fs := newFlagSet("admin kyc")
	status := fs.String("status", string(models.KYCPending), "filter: pending, approved, rejected, all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	page, err := a.client.KycQueue(ctx, models.KYCStatus(*status), "", 50, 0)
	if err != nil {
		return err
	}
	fmt.Printf("%d provider(s)\n", page.Total)
	for _, item := range page.Items {
		fmt.Printf("#%d %s <%s> %s kyc=%s online=%v\n",
			item.ProviderID, item.Name, item.Email, item.ServiceType, item.KycStatus, item.IsOnline)
	}
	return nil
}

func (a *app) adminProviders(ctx context.Context, args []string) error {
	fs := newFlagSet("admin providers")
	search := fs.String("search", "", "match name or email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	page, err := a.client.AdminProviders(ctx, *search, 50, 0)
	if err != nil {
		return err
	}
	fmt.Printf("%d provider(s)\n", page.Total)
	for _, item := range page.Items {
		fmt.Printf("#%d %s <%s> %s kyc=%s online=%v\n",
			item.ProviderID, item.Name, item.Email, item.ServiceType, item.KycStatus, item.IsOnline)
	}
	return nil
}

func (a *app) adminCustomers(ctx context.Context, args []string) error {
	fs := newFlagSet("admin customers")
	search := fs.String("search", "", "match name or email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	page, err := a.client.AdminCustomers(ctx, *search, 50, 0)
	if err != nil {
		return err
	}
	fmt.Printf("%d customer(s)\n", page.Total)
	for _, u := range page.Items {
		fmt.Printf("#%d %s <%s>\n", u.ID, u.FullName, u.Email)
	}
	return nil
}

func (a *app) adminRequests(ctx context.Context, args []string) error {
	fs := newFlagSet("admin requests")
	status := fs.String("status", "", "filter by status")
	if err := fs.Parse(args); err != nil {
		return err
	}

	page, err := a.client.AdminRequests(ctx, models.RequestStatus(*status), 50, 0)
	if err != nil {
		return err
	}
	fmt.Printf("%d request(s)\n", page.Total)
	printRequests(page.Items, models.RoleAdmin)
	return nil
}

func (a *app) adminReports(ctx context.Context) error {
	page, err := a.client.AdminReports(ctx, 50, 0)
	if err != nil {
		return err
	}
	fmt.Printf("%d report(s)\n", page.Total)
	for _, r := range page.Items {
		fmt.Printf("#%d [%s] %s (%s)\n", r.ID, r.Status, r.Subject, r.Reporter)
	}
	return nil
}

func (a *app) adminSettings(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "set" {
		current, err := a.client.AdminSettings(ctx)
		if err != nil {
			return err
		}

		fs := newFlagSet("admin settings set")
		name := fs.String("name", current.PlatformName, "platform name")
		email := fs.String("email", current.SupportEmail, "support email")
		commission := fs.Float64("commission", current.CommissionPct, "commission percent")
		maintenance := fs.Bool("maintenance", current.MaintenanceMode, "maintenance mode")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		current.PlatformName = *name
		current.SupportEmail = *email
		current.CommissionPct = *commission
		current.MaintenanceMode = *maintenance
		if err := a.client.UpdateAdminSettings(ctx, *current); err != nil {
			return err
		}
		fmt.Println("settings saved")
		return nil
	}

	settings, err := a.client.AdminSettings(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("platform:    %s\n", settings.PlatformName)
	fmt.Printf("support:     %s\n", settings.SupportEmail)
	fmt.Printf("commission:  %.1f%%\n", settings.CommissionPct)
	fmt.Printf("maintenance: %v\n", settings.MaintenanceMode)
	return nil
}
