package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

// Posts shows the newest forum page.
func (a *App) Posts(ctx context.Context) error {
	a.nextCursor = ""
	return a.showPosts(ctx)
}

// MorePosts shows the page after the last one shown.
func (a *App) MorePosts(ctx context.Context) error {
	if a.nextCursor == "" {
		return errors.New("no more posts, use 'posts' to start over")
	}
	return a.showPosts(ctx)
}

func (a *App) showPosts(ctx context.Context) error {
	page, err := a.api.Posts(ctx, a.nextCursor, 0)
	if err != nil {
		return err
	}
	for _, p := range page.Posts {
		fmt.Fprintf(a.out, "%s  %s\n  %s\n", p.CreatedAt.Local().Format(dateLayout), p.AuthorName, p.Body)
		if p.AttachmentKey != "" {
			fmt.Fprintf(a.out, "  [attachment %s]\n", p.AttachmentKey)
		}
	}
	a.nextCursor = page.NextCursor
	if a.nextCursor != "" {
		fmt.Fprintln(a.out, "(type 'more' for older posts)")
	}
	return nil
}

// AddPost publishes a post, uploading an optional file first.
func (a *App) AddPost(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	body, err := getMultiline(a.reader, "Message", a.out)
	if err != nil {
		return err
	}
	path, err := getSimpleText(a.reader, "File to attach (empty for none)", a.out)
	if err != nil {
		return err
	}

	var key string
	if path != "" {
		data, err := readFile(path)
		if err != nil {
			return err
		}
		k, url, err := a.api.AttachmentUploadURL(ctx)
		if err != nil {
			return err
		}
		if err := a.api.Upload(ctx, url, data); err != nil {
			return err
		}
		key = k
	}

	p, err := a.api.AddPost(ctx, body, key)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Post %s published.\n", p.ID)
	return nil
}
