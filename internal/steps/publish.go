package steps

import (
	"context"
	"fmt"

	"github.com/storieswithjai/ghostflow/pkg/collab"
	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// Publish returns the final step. With a scheduled time set it records a
// pending post in the scheduled-post store and returns without touching the
// publisher; the poller delivers it later. Without one it publishes
// immediately, attaching the selected image's URL when an image was chosen.
func Publish(pub collab.Publisher, posts collab.ScheduledPostStore) flow.StepFunc {
	return func(ctx context.Context, s flow.State) (flow.Update, error) {
		if s.FinalDraft == "" {
			return flow.Update{
				Log: []string{"publish skipped: no final draft"},
			}, nil
		}

		imageURL := ""
		if s.SelectedImage != nil {
			imageURL = s.SelectedImage.FullURL
		}

		if s.ScheduledTime != nil {
			id, err := posts.Add(ctx, s.FinalDraft, imageURL, *s.ScheduledTime)
			if err != nil {
				return flow.Update{}, err
			}
			return flow.Update{
				Log: []string{fmt.Sprintf("post scheduled: %s", id)},
			}, nil
		}

		res, err := pub.PublishNow(ctx, s.FinalDraft, imageURL)
		if err != nil {
			return flow.Update{}, err
		}

		return flow.Update{
			Log: []string{fmt.Sprintf("published: %s", res.ID)},
		}, nil
	}
}
