package community

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockhub-kr/stockhub/internal/core"
)

func TestPostInputValidation(t *testing.T) {
	svc := NewService(nil, nil)
	ctx := context.Background()

	cases := map[string]PostInput{
		"MissingUser":    {Title: "t", Content: "c"},
		"MissingTitle":   {UserID: "u1", Content: "c"},
		"MissingContent": {UserID: "u1", Title: "t"},
		"TitleTooLong":   {UserID: "u1", Title: strings.Repeat("a", MaxTitleLength+1), Content: "c"},
		"ContentTooLong": {UserID: "u1", Title: "t", Content: strings.Repeat("a", MaxContentLength+1)},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreatePost(ctx, input)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestCommentInputValidation(t *testing.T) {
	svc := NewService(nil, nil)
	ctx := context.Background()

	_, err := svc.AddComment(ctx, CommentInput{UserID: "u1", Content: "c"})
	require.ErrorIs(t, err, ErrInvalid)

	_, err = svc.AddComment(ctx, CommentInput{TargetID: "news_1", Content: "c"})
	require.ErrorIs(t, err, ErrInvalid)

	_, err = svc.AddComment(ctx, CommentInput{TargetID: "news_1", UserID: "u1", Content: "   "})
	require.ErrorIs(t, err, ErrInvalid)

	_, err = svc.AddComment(ctx, CommentInput{
		TargetID: "news_1", UserID: "u1",
		Content: strings.Repeat("a", MaxCommentLength+1),
	})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestVoteInputValidation(t *testing.T) {
	svc := NewService(nil, nil)
	ctx := context.Background()

	_, err := svc.Vote(ctx, "", "u1", core.VoteBullish)
	require.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Vote(ctx, "news_1", "u1", core.VoteKind("sideways"))
	require.ErrorIs(t, err, ErrInvalid)
}

func TestInquiryInputValidation(t *testing.T) {
	svc := NewService(nil, nil)
	ctx := context.Background()

	valid := InquiryInput{
		Name: "Alex", Email: "alex@example.com",
		Subject: "s", Message: "m",
	}

	broken := valid
	broken.Email = "not-an-email"
	_, err := svc.SubmitInquiry(ctx, broken, nil)
	require.ErrorIs(t, err, ErrInvalid)

	broken = valid
	broken.Name = " "
	_, err = svc.SubmitInquiry(ctx, broken, nil)
	require.ErrorIs(t, err, ErrInvalid)

	broken = valid
	broken.Message = strings.Repeat("a", MaxMessageLength+1)
	_, err = svc.SubmitInquiry(ctx, broken, nil)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestNoticeInputValidation(t *testing.T) {
	svc := NewService(nil, nil)
	ctx := context.Background()

	_, err := svc.CreateNotice(ctx, NoticeInput{Content: "c"})
	require.ErrorIs(t, err, ErrInvalid)

	_, err = svc.CreateNotice(ctx, NoticeInput{Title: "t"})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestNewIDCarriesPrefix(t *testing.T) {
	id := newID("post")
	require.True(t, strings.HasPrefix(id, "post_"))
	require.NotEqual(t, id, newID("post"))
}
