package main

import (
	"context"
	"fmt"

	"github.com/quickserve/quickserve-go/internal/models"
	"github.com/quickserve/quickserve-go/internal/poll"
	"github.com/quickserve/quickserve-go/internal/stream"
)

// cmdWatch runs the live dashboard for whichever role is logged in,
// refreshing on the same cadence the web pages did.
func (a *app) cmdWatch(ctx context.Context) error {
	switch a.session.Role() {
	case models.RoleCustomer:
		return a.watchCustomer(ctx)
	case models.RoleProvider:
		return a.watchProvider(ctx)
	case models.RoleAdmin:
		return a.watchAdmin(ctx)
	default:
		return a.require(models.RoleCustomer, "/watch")
	}
}

func (a *app) watchCustomer(ctx context.Context) error {
	requests := poll.New("my-requests", a.cfg.PollInterval, func(ctx context.Context) ([]models.Request, error) {
		return a.client.MyRequests(ctx, 50, 0)
	}, a.log)
	requests.Start(ctx)
	defer requests.Close()

	fmt.Println("watching your requests, Ctrl-C to stop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-requests.Updates():
			renderList("your requests", snap, models.RoleCustomer)
		}
	}
}

func (a *app) watchProvider(ctx context.Context) error {
	incoming := poll.New("incoming", a.cfg.FastPollInterval, func(ctx context.Context) ([]models.Request, error) {
		return a.client.Incoming(ctx)
	}, a.log)
	job := poll.New("current-job", a.cfg.JobPollInterval, func(ctx context.Context) (*models.Request, error) {
		return a.client.CurrentJob(ctx)
	}, a.log)

	incoming.Start(ctx)
	job.Start(ctx)
	defer incoming.Close()
	defer job.Close()

	fmt.Println("watching incoming work, Ctrl-C to stop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-incoming.Updates():
			renderList("incoming", snap, models.RoleProvider)
		case snap := <-job.Updates():
			if snap.Err != nil {
				fmt.Printf("current job: %v\n", snap.Err)
				continue
			}
			if snap.Data == nil {
				continue
			}
			fmt.Println("-- current job --")
			printRequest(*snap.Data, models.RoleProvider)
		}
	}
}

// watchAdmin polls the dashboard counters and lets the refresh stream kick
// the next fetch ahead of the ticker.
func (a *app) watchAdmin(ctx context.Context) error {
	stats := poll.New("admin-stats", a.cfg.PollInterval, func(ctx context.Context) (*models.AdminStats, error) {
		return a.client.AdminStats(ctx)
	}, a.log)
	stats.Start(ctx)
	defer stats.Close()

	listener := stream.New(a.client.WebSocketURL("/ws/admin"), a.cfg.StreamRetryDelay, a.log, stats)
	listener.Start(ctx)

	fmt.Println("watching the platform, Ctrl-C to stop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-stats.Updates():
			if snap.Err != nil {
				fmt.Printf("stats: %v\n", snap.Err)
				continue
			}
			s := snap.Data
			fmt.Printf("kyc=%d providers=%d/%d customers=%d requests=%d reports=%d\n",
				s.PendingKyc, s.OnlineProviders, s.TotalProviders,
				s.TotalCustomers, s.TotalRequests, s.OpenReports)
		}
	}
}

func renderList(title string, snap poll.Snapshot[[]models.Request], role string) {
	if snap.Err != nil {
		fmt.Printf("%s: %v\n", title, snap.Err)
		return
	}
	fmt.Printf("-- %s --\n", title)
	printRequests(snap.Data, role)
}
