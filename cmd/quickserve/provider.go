package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/quickserve/quickserve-go/internal/geo"
	"github.com/quickserve/quickserve-go/internal/models"
)

func (a *app) cmdIncoming(ctx context.Context) error {
	if err := a.require(models.RoleProvider, "/provider/incoming"); err != nil {
		return err
	}
	items, err := a.client.Incoming(ctx)
	if err != nil {
		return err
	}
	printRequests(items, models.RoleProvider)
	return nil
}

func (a *app) cmdHistory(ctx context.Context, args []string) error {
	if err := a.require(models.RoleProvider, "/provider/history"); err != nil {
		return err
	}

	fs := newFlagSet("history")
	limit := fs.Int("limit", 50, "max results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	items, err := a.client.History(ctx, *limit)
	if err != nil {
		return err
	}
	printRequests(items, models.RoleProvider)
	return nil
}

// cmdJob shows the current job, a specific one, or posts a progress
// transition with -set.
func (a *app) cmdJob(ctx context.Context, args []string) error {
	if err := a.require(models.RoleProvider, "/provider/job"); err != nil {
		return err
	}

	if len(args) > 0 && args[0] == "-set" {
		if len(args) < 3 {
			return fmt.Errorf("usage: job -set ID STATUS")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("bad id %q", args[1])
		}
		status, err := models.NewRequestStatus(args[2])
		if err != nil {
			return err
		}
		req, err := a.client.UpdateJobStatus(ctx, id, status)
		if err != nil {
			return err
		}
		printRequest(*req, models.RoleProvider)
		return nil
	}

	if len(args) > 0 {
		id, err := argID(args)
		if err != nil {
			return err
		}
		req, err := a.client.ProviderRequest(ctx, id)
		if err != nil {
			return err
		}
		printRequest(*req, models.RoleProvider)
		return nil
	}

	req, err := a.client.CurrentJob(ctx)
	if err != nil {
		return err
	}
	if req == nil {
		fmt.Println("no active job")
		return nil
	}
	printRequest(*req, models.RoleProvider)
	return nil
}

func (a *app) cmdAccept(ctx context.Context, args []string) error {
	if err := a.require(models.RoleProvider, "/provider/incoming"); err != nil {
		return err
	}
	id, err := argID(args)
	if err != nil {
		return err
	}
	req, err := a.client.AcceptRequest(ctx, id)
	if err != nil {
		return err
	}
	fmt.Println("job taken")
	printRequest(*req, models.RoleProvider)
	return nil
}

func (a *app) cmdReject(ctx context.Context, args []string) error {
	if err := a.require(models.RoleProvider, "/provider/incoming"); err != nil {
		return err
	}
	id, err := argID(args)
	if err != nil {
		return err
	}
	if _, err := a.client.RejectRequest(ctx, id); err != nil {
		return err
	}
	fmt.Println("request declined")
	return nil
}

func (a *app) cmdAvailability(ctx context.Context, args []string) error {
	if err := a.require(models.RoleProvider, "/provider/availability"); err != nil {
		return err
	}

	fs := newFlagSet("availability")
	online := fs.Bool("online", false, "go online")
	days := fs.String("days", "mon,tue,wed,thu,fri,sat", "working days")
	start := fs.String("start", "09:00", "day start")
	end := fs.String("end", "20:00", "day end")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := models.Availability{
		IsOnline:    *online,
		WorkingDays: strings.Split(*days, ","),
		StartTime:   *start,
		EndTime:     *end,
	}

	// GoOnline checks the KYC gate first and points at the upload flow
	// instead of bouncing off the backend error.
	var isOnline bool
	var err error
	if *online {
		isOnline, err = a.client.GoOnline(ctx, in)
	} else {
		isOnline, err = a.client.SetAvailability(ctx, in)
	}
	if err != nil {
		return err
	}
	if isOnline {
		fmt.Println("you are online, customers can find you now")
	} else {
		fmt.Println("you are offline")
	}
	return nil
}

// stdinPositions feeds the broadcaster with "LAT LNG" lines, standing in
// for the device's position watcher.
type stdinPositions struct{}

func (stdinPositions) Watch(ctx context.Context) (<-chan models.Position, error) {
	out := make(chan models.Position)
	scanner := bufio.NewScanner(os.Stdin)
	go func() {
		defer close(out)
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) != 2 {
				continue
			}
			lat, err1 := strconv.ParseFloat(fields[0], 64)
			lng, err2 := strconv.ParseFloat(fields[1], 64)
			if err1 != nil || err2 != nil {
				continue
			}
			select {
			case out <- models.Position{Latitude: lat, Longitude: lng}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// cmdBroadcast streams positions until stdin closes or the process gets a
// signal, then sends the final offline update.
func (a *app) cmdBroadcast(ctx context.Context) error {
	if err := a.require(models.RoleProvider, "/provider/live"); err != nil {
		return err
	}

	b := geo.New(stdinPositions{}, a.client, a.cfg.LocationMinInterval, a.cfg.LocationMinMoveM, a.log)
	if err := b.Start(ctx); err != nil {
		return err
	}
	fmt.Println("broadcasting, type \"LAT LNG\" lines, Ctrl-D to stop")

	<-ctx.Done()
	b.Stop()
	fmt.Println("stopped, marked offline")
	return nil
}

func (a *app) cmdKyc(ctx context.Context, args []string) error {
	if err := a.require(models.RoleProvider, "/provider/kyc"); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("kyc needs a subcommand: status, upload")
	}

	switch sub, rest := args[0], args[1:]; sub {
	case "status":
		status, err := a.client.KycStatus(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("kyc: %s\n", status)
		return nil
	case "upload":
		fs := newFlagSet("kyc upload")
		idNumber := fs.String("id-number", "", "government id number")
		idProof := fs.String("id-proof", "", "id document file")
		addressProof := fs.String("address-proof", "", "address proof file")
		photo := fs.String("photo", "", "profile photo file")
		address := fs.String("address", "", "address line")
		if err := fs.Parse(rest); err != nil {
			return err
		}

		err := a.client.UploadKyc(ctx, models.KYCUpload{
			IDNumber:         *idNumber,
			AddressLine:      *address,
			IDProofPath:      *idProof,
			AddressProofPath: *addressProof,
			ProfilePhotoPath: *photo,
		})
		if err != nil {
			return err
		}
		fmt.Println("documents submitted, review is pending")
		return nil
	default:
		return fmt.Errorf("unknown kyc subcommand %q", sub)
	}
}
