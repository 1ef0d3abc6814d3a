package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/dondeestamimascota/mascotas/internal/model"
)

// imageFiles collects --image paths as base64 payloads.
type imageFiles struct {
	images *[]string
}

func (f imageFiles) String() string {
	if f.images == nil {
		return ""
	}
	return fmt.Sprintf("%d images", len(*f.images))
}

func (f imageFiles) Set(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	*f.images = append(*f.images, base64.StdEncoding.EncodeToString(data))
	return nil
}

// postingFlags binds the draft fields to fs with d's values as defaults, so
// flags left out keep what d already holds.
func postingFlags(fs *flag.FlagSet, d *model.PostingDraft) *string {
	fs.StringVar(&d.Name, "name", d.Name, "pet name")
	fs.StringVar(&d.Color, "color", d.Color, "colour")
	fs.StringVar(&d.Size, "size", d.Size, "size ("+strings.Join(model.Sizes, "|")+")")
	fs.StringVar(&d.Description, "description", d.Description, "description, at least 10 characters")
	fs.StringVar(&d.Phone, "phone", d.Phone, "contact phone")
	fs.StringVar(&d.Province, "province", d.Province, "province")
	fs.StringVar(&d.Locality, "locality", d.Locality, "locality")
	fs.StringVar(&d.Street, "street", d.Street, "street")
	fs.StringVar(&d.Number, "number", d.Number, "street number")
	fs.Var(imageFiles{&d.Images}, "image", "image file, repeatable")
	return fs.String("status", string(d.Status), "status ("+statusNames()+")")
}

func parseStatus(v string) (lifecycle.Status, error) {
	return lifecycle.Parse(strings.ToUpper(strings.TrimSpace(v)))
}

func cmdReport(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	d := model.PostingDraft{Status: lifecycle.LostOwn}
	status := postingFlags(fs, &d)
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := parseStatus(*status)
	if err != nil {
		return err
	}
	d.Status = s
	if _, err := e.session(ctx); err != nil {
		return err
	}

	p, err := e.reports.CreatePosting(ctx, d)
	if err != nil {
		return err
	}
	e.store.Wait()
	if cur, ok := e.store.Snapshot().Posting(p.ID); ok {
		p = &cur
	}
	if e.jsonOut {
		outputJSON(p)
		return nil
	}
	fmt.Printf("Posting %d published as %s.\n", p.ID, lifecycle.Label(p.Status))
	return nil
}

func postingID(args []string, usage string) (int64, []string, error) {
	if len(args) == 0 {
		return 0, nil, errors.New(usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid posting id %q", args[0])
	}
	return id, args[1:], nil
}

func cmdEdit(ctx context.Context, e *env, args []string) error {
	id, rest, err := postingID(args, "usage: mascotactl edit <id> [posting flags]")
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

	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	d := model.DraftOf(*cur)
	d.Images = nil
	status := postingFlags(fs, &d)
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if d.Images == nil {
		d.Images = cur.Images
	}
	s, err := parseStatus(*status)
	if err != nil {
		return err
	}
	d.Status = s
	if lifecycle.RequiresConfirmation(cur.Status, s) {
		return fmt.Errorf("posting %d is %s; use: mascotactl transition %d %s --yes", id, cur.Status, id, s)
	}

	p, err := e.reports.EditPosting(ctx, id, d)
	if err != nil {
		return err
	}
	if e.jsonOut {
		outputJSON(p)
		return nil
	}
	fmt.Printf("Posting %d saved.\n", p.ID)
	return nil
}

func cmdDelete(ctx context.Context, e *env, args []string) error {
	id, rest, err := postingID(args, "usage: mascotactl delete <id> --yes")
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "confirm the deletion")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if !*yes {
		return fmt.Errorf("deleting posting %d needs --yes", id)
	}
	if _, err := e.session(ctx); err != nil {
		return err
	}
	if _, err := e.engine.LoadPosting(ctx, id); err != nil {
		return err
	}
	if err := e.reports.DeletePosting(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Posting %d deleted.\n", id)
	return nil
}

func cmdSighting(ctx context.Context, e *env, args []string) error {
	now := time.Now()
	d := model.SightingDraft{Date: now.Format("2006-01-02"), Time: now.Format("15:04:05")}
	fs := flag.NewFlagSet("sighting", flag.ContinueOnError)
	posting := fs.Int64("posting", 0, "posting the sighting belongs to")
	fs.StringVar(&d.Date, "date", d.Date, "date, YYYY-MM-DD")
	fs.StringVar(&d.Time, "time", d.Time, "time, HH:MM:SS")
	fs.StringVar(&d.Description, "description", "", "what you saw, at least 10 characters")
	fs.StringVar(&d.Address, "address", "", "free-form address or landmark")
	fs.StringVar(&d.Province, "province", "", "province")
	fs.StringVar(&d.Locality, "locality", "", "locality")
	fs.StringVar(&d.Street, "street", "", "street")
	fs.StringVar(&d.Number, "number", "", "street number")
	fs.Var(imageFiles{&d.Images}, "image", "image file, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *posting != 0 {
		d.PostingID = posting
	}
	if _, err := e.session(ctx); err != nil {
		return err
	}

	sg, err := e.reports.ReportSighting(ctx, d)
	if err != nil {
		return err
	}
	if e.jsonOut {
		outputJSON(sg)
		return nil
	}
	fmt.Printf("Sighting %d reported.\n", sg.ID)
	return nil
}
