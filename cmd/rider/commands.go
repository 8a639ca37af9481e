package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/ride-customer/internal/directory"
	"github.com/example/ride-customer/internal/home"
	"github.com/example/ride-customer/internal/ridedetail"
	"github.com/example/ride-customer/internal/ridelist"
	"github.com/example/ride-customer/internal/ui"
)

var (
	errUsage        = errors.New("usage")
	errChooseDriver = errors.New("choose a driver with -driver ID")
)

func dispatch(ctx context.Context, a *app, cmd string, args []string) error {
	switch cmd {
	case "start":
		return cmdStart(ctx, a)
	case "login":
		return cmdLogin(ctx, a, args)
	case "logout":
		return a.store.Clear(ctx)
	case "drivers":
		return cmdDrivers(ctx, a)
	case "request":
		return cmdRequest(ctx, a, args)
	case "rides":
		return cmdRides(ctx, a)
	case "ride", "cancel", "track":
		if len(args) != 1 {
			return errUsage
		}
		return cmdRide(ctx, a, cmd, args[0])
	default:
		return errUsage
	}
}

func cmdStart(ctx context.Context, a *app) error {
	route, err := a.gate().Run(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Checking your session...")
		return err
	}
	if route != ui.RouteHome {
		return nil
	}
	snap := a.homeScreen().Load(ctx)
	if snap.State != home.Loaded {
		fmt.Fprintln(a.out, snap.Message)
		return errors.New(snap.Message)
	}
	fmt.Fprintf(a.out, "Hello, %s.\n", snap.User.FullName())
	fmt.Fprintf(a.out, "[%s] rider request -driver ID -pickup FROM -dropoff TO -passengers N\n", home.LabelRequest)
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	token := fs.String("token", "", "session token")
	if err := fs.Parse(args); err != nil || *token == "" {
		return errUsage
	}
	if err := a.store.Save(ctx, *token); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed in.")
	return nil
}

func cmdDrivers(ctx context.Context, a *app) error {
	snap := a.directory().Load(ctx)
	return printDrivers(a.out, snap)
}

func printDrivers(w io.Writer, snap directory.Snapshot) error {
	switch {
	case snap.State == directory.Error:
		fmt.Fprintln(w, "Could not load drivers.")
		return snap.Err
	case snap.Empty():
		fmt.Fprintln(w, directory.NoDriversMessage)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDRIVER")
	for _, o := range snap.Options {
		fmt.Fprintf(tw, "%s\t%s\n", o.Value, o.Label)
	}
	return tw.Flush()
}

func cmdRequest(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("request", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	driver := fs.String("driver", "", "driver id")
	pickup := fs.String("pickup", "", "pickup location")
	dropoff := fs.String("dropoff", "", "dropoff location")
	passengers := fs.String("passengers", "", "number of passengers")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	dir := a.directory()
	if *driver == "" {
		if err := printDrivers(a.out, dir.Load(ctx)); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Pick a driver with -driver ID.")
		return errChooseDriver
	}

	a.homeScreen().RequestRide()
	screen := a.requestScreen(dir)
	screen.Mount(ctx)
	defer screen.Unmount()

	screen.SetDriver(*driver)
	screen.SetPickup(*pickup)
	screen.SetDropoff(*dropoff)
	screen.SetPassengers(*passengers)
	if err := screen.Submit(ctx); err != nil {
		return err
	}
	if r := screen.Ride(); r != nil {
		fmt.Fprintf(a.out, "Ride %s is %s.\n", r.ID, r.Status)
	}
	return nil
}

func cmdRides(ctx context.Context, a *app) error {
	snap := a.listScreen().Focus(ctx)
	if snap.State == ridelist.Error {
		fmt.Fprintln(a.out, snap.Message)
		return errors.New(snap.Message)
	}
	if len(snap.Items) == 0 {
		fmt.Fprintln(a.out, "You have no rides yet.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDRIVER\tFROM\tTO\tSTATUS")
	for _, it := range snap.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.Driver, it.Pickup, it.Dropoff, it.Status)
	}
	return tw.Flush()
}

func cmdRide(ctx context.Context, a *app, cmd, id string) error {
	var render func(ridedetail.View)
	if cmd == "track" {
		render = func(v ridedetail.View) { printView(a.out, v) }
	}
	screen := a.detailScreen(id, render)
	screen.Mount(ctx)
	defer screen.Unmount()

	v := screen.Load(ctx)
	if render == nil {
		printView(a.out, v)
	}
	if v.State != ridedetail.Loaded {
		return errors.New(v.Message)
	}
	switch cmd {
	case "cancel":
		return screen.Cancel(ctx)
	case "track":
		return screen.Track(ctx, a.subscriber())
	}
	return nil
}

func printView(w io.Writer, v ridedetail.View) {
	if v.State != ridedetail.Loaded {
		fmt.Fprintln(w, v.Message)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Driver\t%s\n", v.DriverName)
	fmt.Fprintf(tw, "Phone\t%s\n", v.DriverPhone)
	fmt.Fprintf(tw, "Pickup\t%s\n", v.Pickup)
	fmt.Fprintf(tw, "Dropoff\t%s\n", v.Dropoff)
	fmt.Fprintf(tw, "Passengers\t%s\n", v.Passengers)
	fmt.Fprintf(tw, "Status\t%s (%s)\n", v.Status, v.StatusColor)
	fmt.Fprintf(tw, "Requested\t%s\n", v.RequestedAt)
	if v.DistanceMeters > 0 {
		fmt.Fprintf(tw, "Distance\t%.1f km\n", v.DistanceMeters/1000)
		fmt.Fprintf(tw, "Estimate\t%.0f min\n", v.EstimateSeconds/60)
	}
	_ = tw.Flush()
	switch {
	case v.Action.Kind == ridedetail.ActionMessage:
		fmt.Fprintln(w, v.Action.Message)
	case v.Action.Enabled:
		fmt.Fprintf(w, "[%s]\n", v.Action.Label)
	default:
		fmt.Fprintf(w, "[%s] (disabled)\n", v.Action.Label)
	}
}
