package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PaymentBot/app/models"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
)

func TestJobChatRegistry(t *testing.T) {
	f := newFixture(false)

	assert.True(t, f.job.AddChat(chatTwo))
	assert.True(t, f.job.AddChat(chatOne))
	assert.False(t, f.job.AddChat(chatOne))
	assert.Equal(t, []chat.Chat{chatTwo, chatOne}, f.job.Chats())

	assert.True(t, f.job.RemoveChat(chatTwo))
	assert.False(t, f.job.RemoveChat(chatTwo))

	f.job.RemoveAllChats()
	assert.Empty(t, f.job.Chats())
}

func TestJobRunOnceWithoutChats(t *testing.T) {
	f := newFixture(false)

	report := f.job.RunOnce(context.Background())
	assert.Empty(t, report.Results)
	assert.False(t, report.Aborted)
	assert.Zero(t, f.source.Reads())
}

func TestJobRunOnceKicksExpiredMembers(t *testing.T) {
	f := newFixture(false)
	f.job.AddChat(chatOne)
	f.job.AddChat(chatTwo)

	report := f.job.RunOnce(context.Background())
	require.Len(t, report.Results, 2)
	assert.False(t, report.Aborted)
	assert.False(t, report.DryRun)
	assert.NotEmpty(t, report.RunID)

	bans := f.bans.Bans()
	require.Len(t, bans, 2)
	assert.Equal(t, lateUser.ID, bans[0].UserID)
	assert.Equal(t, otherLate.ID, bans[1].UserID)

	// one ledger load for the whole pass
	assert.Equal(t, 1, f.source.Reads())

	records := f.records.all()
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, report.RunID, r.RunID)
		assert.Equal(t, models.KICK_SOURCE_AUDIT, r.Source)
		assert.Equal(t, models.KICK_REASON_EXPIRED_PAYMENT, r.Reason)
	}

	msgs := f.messages.Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Text, "Removed members: 1")
}

func TestJobRunOnceIsIdempotent(t *testing.T) {
	f := newFixture(false)
	f.job.AddChat(chatOne)

	f.job.RunOnce(context.Background())
	second := f.job.RunOnce(context.Background())

	require.Len(t, second.Results, 1)
	assert.Empty(t, second.Results[0].Kicked)
	assert.Len(t, f.bans.Bans(), 1)
	assert.Equal(t, 2, f.source.Reads())
}

func TestJobRunOnceDryRun(t *testing.T) {
	f := newFixture(true)
	f.job.AddChat(chatOne)

	report := f.job.RunOnce(context.Background())
	assert.True(t, report.DryRun)
	require.Len(t, report.Results, 1)
	assert.Len(t, report.Results[0].Kicked, 1)
	assert.Empty(t, f.bans.Bans())

	records := f.records.all()
	require.Len(t, records, 1)
	assert.True(t, records[0].DryRun)
	assert.Contains(t, f.messages.Messages()[0].Text, "Test mode ON")
}

func TestJobRunOnceAbortsWhenLedgerFails(t *testing.T) {
	f := newFixture(false)
	f.job.AddChat(chatOne)
	f.job.AddChat(chatTwo)
	f.source.SetError(errors.New("sheet unreachable"))

	report := f.job.RunOnce(context.Background())
	assert.True(t, report.Aborted)
	require.Len(t, report.Results, 1)
	assert.Contains(t, report.Results[0].Error, "sheet unreachable")
	assert.Empty(t, f.bans.Bans())
	assert.Empty(t, f.messages.Messages())
}

func TestJobRunOnceIsolatesChatFailures(t *testing.T) {
	f := newFixture(false)
	f.job.AddChat(chatOne)
	f.job.AddChat(chatTwo)
	f.bans.FailFor = map[int64]bool{otherLate.ID: true}

	report := f.job.RunOnce(context.Background())
	assert.False(t, report.Aborted)
	require.Len(t, report.Results, 2)

	// chatTwo sorts first and fails, chatOne is still checked
	assert.Equal(t, chatTwo.ID, report.Results[0].Chat.ID)
	assert.NotEmpty(t, report.Results[0].Error)
	assert.Empty(t, report.Results[1].Error)
	require.Len(t, f.bans.Bans(), 1)
	assert.Equal(t, lateUser.ID, f.bans.Bans()[0].UserID)
}

func TestJobRunOnceReportsMembersKickedBeforeBanError(t *testing.T) {
	f := newFixture(false)
	zlate := chat.User{ID: 4, Username: "zlate"}
	f.members.Add(chatOne, chat.StatusMember, zlate)
	f.bans.FailFor = map[int64]bool{zlate.ID: true}
	f.job.AddChat(chatOne)

	report := f.job.RunOnce(context.Background())
	require.Len(t, report.Results, 1)
	assert.Contains(t, report.Results[0].Error, "zlate")
	require.Len(t, report.Results[0].Kicked, 1)
	assert.Equal(t, lateUser.ID, report.Results[0].Kicked[0].User.ID)

	records := f.records.all()
	require.Len(t, records, 1)
	assert.Equal(t, lateUser.ID, records[0].UserID)

	messages := f.messages.Messages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Text, "Removed members: 1")
}

func TestRemovalNotice(t *testing.T) {
	kicked := chat.MemberList{{User: chat.User{ID: 9, Username: "gone"}, Status: chat.StatusMember}}

	msg := RemovalNotice(chat.Chat{ID: -5}, kicked, false)
	assert.Contains(t, msg, "Payments check for chat -5")
	assert.Contains(t, msg, "- @gone")
	assert.NotContains(t, msg, "Test mode")
}

func TestRecorderNilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Record(context.Background(), NewRunID(), models.KICK_SOURCE_AUDIT, models.KICK_REASON_EXPIRED_PAYMENT, chatOne, []chat.User{lateUser}, false)
	})
}
