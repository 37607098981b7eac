package chat

import (
	"context"
	"fmt"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/Samuelzila/grammar-police/internal/model"
)

const (
	NoteableIssue        = "Issue"
	NoteableMergeRequest = "MergeRequest"
)

// GitLabReplier answers a note by posting a new note on the same issue or merge request.
type GitLabReplier struct {
	client *gitlab.Client
}

// NewGitLabClient builds an API client. An empty baseURL targets gitlab.com.
func NewGitLabClient(baseURL, token string) (*gitlab.Client, error) {
	if baseURL == "" {
		return gitlab.NewClient(token)
	}
	apiURL := strings.TrimSuffix(baseURL, "/") + "/api/v4"
	return gitlab.NewClient(token, gitlab.WithBaseURL(apiURL))
}

func NewGitLabReplier(client *gitlab.Client) *GitLabReplier {
	return &GitLabReplier{client: client}
}

func (r *GitLabReplier) Reply(ctx context.Context, msg model.InboundMessage, content string) error {
	if msg.ProjectID == 0 || msg.NoteableIID == 0 {
		return &DeliveryError{Platform: model.PlatformGitLab, Err: fmt.Errorf("message has no project or noteable iid")}
	}

	var err error
	switch msg.NoteableType {
	case NoteableIssue:
		_, _, err = r.client.Notes.CreateIssueNote(msg.ProjectID, msg.NoteableIID, &gitlab.CreateIssueNoteOptions{
			Body: gitlab.Ptr(content),
		}, gitlab.WithContext(ctx))
	case NoteableMergeRequest:
		_, _, err = r.client.Notes.CreateMergeRequestNote(msg.ProjectID, msg.NoteableIID, &gitlab.CreateMergeRequestNoteOptions{
			Body: gitlab.Ptr(content),
		}, gitlab.WithContext(ctx))
	default:
		err = fmt.Errorf("unsupported noteable type %q", msg.NoteableType)
	}
	if err != nil {
		return &DeliveryError{Platform: model.PlatformGitLab, Err: err}
	}
	return nil
}
