package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/poreview/internal/models"
)

var getMultiline = GetMultiline
var getMeta = GetMeta

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

// Save walks through the draft fields and creates a pending record.
func (s *Shell) Save(ctx context.Context) error {
	if _, err := s.app.Session.RequireUser(); err != nil {
		return err
	}

	var d models.Draft
	var err error
	if d.Title, err = getSimpleText(s.reader, "Title", s.out); err != nil {
		return err
	}
	if d.PONumber, err = getSimpleText(s.reader, "PO number", s.out); err != nil {
		return err
	}
	if d.Summary, err = getMultiline(s.reader, "Summary", s.out); err != nil {
		return err
	}
	if d.Meta, err = getMeta(s.reader, s.out); err != nil {
		return err
	}

	path, err := getSimpleText(s.reader, "Document path (empty for none)", s.out)
	if err != nil {
		return err
	}
	var blob []byte
	if path != "" {
		if blob, err = readFile(path); err != nil {
			return fmt.Errorf("read document: %w", err)
		}
	}

	rec, err := s.app.Records.SavePoRecord(ctx, d, blob)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Saved %s\n", rec.ID)
	if rec.LatestFile != "" {
		fmt.Fprintf(s.out, "Attached %s\n", rec.LatestFile)
	}
	return nil
}

func (s *Shell) Mine(ctx context.Context) error {
	list, err := s.app.Records.FetchMyRecords(ctx)
	if err != nil {
		return err
	}
	return s.printRecords(list)
}

func (s *Shell) Assigned(ctx context.Context) error {
	list, err := s.app.Records.FetchAssignedRecords(ctx)
	if err != nil {
		return err
	}
	return s.printRecords(list)
}

func (s *Shell) printRecords(list []*models.PoRecord) error {
	if len(list) == 0 {
		fmt.Fprintln(s.out, "No records")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPO\tTITLE\tREVIEWERS\tUPDATED")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.Status, r.PONumber, r.Title, len(r.Assignees), r.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func (s *Shell) Show(ctx context.Context, recordID string) error {
	r, err := s.app.Records.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s  %s  [%s]\n", r.PONumber, r.Title, r.Status)
	if r.Summary != "" {
		fmt.Fprintln(s.out, r.Summary)
	}
	fmt.Fprintf(s.out, "owner: %s\n", r.OwnerID)
	if len(r.Assignees) > 0 {
		fmt.Fprintf(s.out, "reviewers: %s\n", strings.Join(r.Assignees, ", "))
	}
	if r.LatestFile != "" {
		fmt.Fprintf(s.out, "document: %s\n", r.LatestFile)
	}

	p, err := r.Payload()
	if err != nil {
		return err
	}
	for _, sec := range []struct {
		name string
		raw  []byte
	}{
		{"details", p.Meta},
		{"items", p.Items},
		{"attachments", p.Attachments},
		{"clauses", p.Clauses},
	} {
		if len(sec.raw) > 0 && string(sec.raw) != "null" {
			fmt.Fprintf(s.out, "%s: %s\n", sec.name, sec.raw)
		}
	}
	return nil
}

func (s *Shell) Assign(ctx context.Context, recordID, email string) error {
	r, err := s.app.Records.AddAssignee(ctx, recordID, email)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Review requested from %s, status %s\n", email, r.Status)
	return nil
}

func (s *Shell) Status(ctx context.Context, recordID, status string) error {
	st, err := models.ParseStatus(status)
	if err != nil {
		return fmt.Errorf("%w (one of %s)", err, joinStatuses())
	}
	r, err := s.app.Records.UpdateRecordStatus(ctx, recordID, st)
	if err != nil {
		return err
	}
	if r.Status.Terminal() {
		fmt.Fprintf(s.out, "%s is now %s (closed)\n", r.ID, r.Status)
		return nil
	}
	fmt.Fprintf(s.out, "%s is now %s\n", r.ID, r.Status)
	return nil
}

func joinStatuses() string {
	names := make([]string, 0, len(models.Statuses()))
	for _, st := range models.Statuses() {
		names = append(names, string(st))
	}
	return strings.Join(names, ", ")
}
