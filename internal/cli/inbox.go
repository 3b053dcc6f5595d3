package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/poreview/internal/models"
)

// writeFile is a test seam for os.WriteFile.
var writeFile = os.WriteFile

func (s *Shell) Inbox(ctx context.Context) error {
	list, err := s.app.Notifications.FetchNotifications(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(s.out, "Inbox is empty")
		return nil
	}

	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t\tTYPE\tRECORD\tDETAIL\tRECEIVED")
	for _, n := range list {
		mark := "*"
		if n.Read {
			mark = ""
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			n.ID, mark, n.Type, n.RecordID, detail(n), n.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func detail(n *models.Notification) string {
	if n.Type != models.NotificationReviewFeedback || len(n.Payload) == 0 {
		return ""
	}
	var p models.FeedbackPayload
	if err := json.Unmarshal(n.Payload, &p); err != nil {
		return ""
	}
	return string(p.Status)
}

func (s *Shell) Read(ctx context.Context, id string) error {
	return s.app.Notifications.MarkNotificationRead(ctx, id)
}

// Download writes the latest document of the record to path.
func (s *Shell) Download(ctx context.Context, recordID, path string) error {
	f, err := s.app.Files.DownloadFile(ctx, recordID)
	if err != nil {
		return err
	}
	if err := writeFile(path, f.Data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(s.out, "Saved %s (%d bytes) to %s\n", f.Name, len(f.Data), path)
	return nil
}
