package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chatrelay/models"
)

func TestParseLogin(t *testing.T) {
	req, err := Parse("LOGIN: alice ")
	require.NoError(t, err)
	require.Equal(t, KindLogin, req.Kind)
	require.Equal(t, "alice", req.Username)
}

func TestParseLogoutVariants(t *testing.T) {
	req, err := Parse("LOGOUT:alice")
	require.NoError(t, err)
	require.Equal(t, KindLogout, req.Kind)
	require.Equal(t, LogoutVoluntary, req.Logout)
	require.Equal(t, "alice", req.Username)

	// The wire suffix marks a displaced session; the decoded request
	// carries the kind instead of the mangled name.
	req, err = Parse("LOGOUT:alice_no")
	require.NoError(t, err)
	require.Equal(t, LogoutDisplaced, req.Logout)
	require.Equal(t, "alice", req.Username)
}

func TestParseRegister(t *testing.T) {
	req, err := Parse("REGISTER:dave:secret")
	require.NoError(t, err)
	require.Equal(t, KindRegister, req.Kind)
	require.Equal(t, "dave", req.Username)
	require.Equal(t, "secret", req.Password)
}

func TestParseSendKeepsColonsInContent(t *testing.T) {
	req, err := Parse("SEND:bob:see you at 10:30:ok?")
	require.NoError(t, err)
	require.Equal(t, KindSend, req.Kind)
	require.Equal(t, "bob", req.Recipient)
	require.Equal(t, "see you at 10:30:ok?", req.Content)
}

func TestParseGroupMsgKeepsPipesInContent(t *testing.T) {
	req, err := Parse("GROUP_MSG|g1|a|b|c")
	require.NoError(t, err)
	require.Equal(t, KindGroupMsg, req.Kind)
	require.Equal(t, "g1", req.GroupID)
	require.Equal(t, "a|b|c", req.Content)
}

func TestParseCreateGroup(t *testing.T) {
	req, err := Parse("CREATE_GROUP|483920|team|alice|alice,bob,carol")
	require.NoError(t, err)
	require.Equal(t, KindCreateGroup, req.Kind)
	require.Equal(t, "483920", req.GroupID)
	require.Equal(t, "team", req.GroupName)
	require.Equal(t, "alice", req.Username)
	require.Equal(t, []string{"alice", "bob", "carol"}, req.Members)
}

func TestParseJoinGroup(t *testing.T) {
	req, err := Parse("JOIN_GROUP|483920|dave")
	require.NoError(t, err)
	require.Equal(t, KindJoinGroup, req.Kind)
	require.Equal(t, "483920", req.GroupID)
	require.Equal(t, "dave", req.Username)
}

func TestParseSnapshotRequests(t *testing.T) {
	for _, line := range []string{"TOLOGIN", "RETOLOGIN"} {
		req, err := Parse(line)
		require.NoError(t, err, line)
		require.Equal(t, KindSnapshot, req.Kind, line)
	}
}

func TestParseFileCommands(t *testing.T) {
	req, err := Parse("GROUP_FILE_LIST_REQUEST|483920")
	require.NoError(t, err)
	require.Equal(t, KindGroupFileList, req.Kind)
	require.Equal(t, "483920", req.GroupID)

	req, err = Parse("FILE_OFFER bob notes.txt 2048")
	require.NoError(t, err)
	require.Equal(t, KindFileRelay, req.Kind)
	require.Equal(t, "bob", req.Recipient)
	require.Equal(t, "FILE_OFFER bob notes.txt 2048", req.Raw)

	req, err = Parse("GROUP_FILE_UPLOAD 483920 notes.txt")
	require.NoError(t, err)
	require.Equal(t, KindGroupFilePort, req.Kind)
}

func TestParseRejectsMalformedAndUnknown(t *testing.T) {
	for _, line := range []string{"LOGIN:", "SEND:bob", "REGISTER:dave", "JOIN_GROUP|g1", "CREATE_GROUP|g1|x|alice"} {
		_, err := Parse(line)
		require.ErrorIs(t, err, ErrMalformed, line)
	}

	_, err := Parse("PING")
	require.ErrorIs(t, err, ErrUnknownCommand)
}

func TestFormatUserList(t *testing.T) {
	got := FormatUserList([]models.Account{
		{Name: "alice", Password: "pw1", Online: true},
		{Name: "bob", Password: "pw2"},
	})
	require.Equal(t, "USERLIST:alice,pw1,true;bob,pw2,false;", got)
}

func TestFormatEnvelopes(t *testing.T) {
	require.Equal(t, "MSG:alice:bob:hello", FormatDirect("alice", "bob", "hello"))
	require.Equal(t, "GROUP_MSG|alice|g1|team|hi", FormatGroupMessage("alice", "g1", "team", "hi"))
	require.Equal(t, "STATUSON:alice", FormatStatusOn("alice"))
	require.Equal(t, "STATUSOFF:alice", FormatStatusOff("alice"))

	g := &models.Group{ID: "g1", Name: "team", Creator: "alice", Members: []string{"alice", "bob"}}
	require.Equal(t, "ADDGROUP|g1|team|alice|alice,bob", FormatGroupRecord(g))
	require.Equal(t, "GROUP_MEMBER_JOINED|g1|team|carol", FormatMemberJoined("g1", "team", "carol"))
	require.Equal(t, "GROUP_FILE_LIST|g1|a.txt,b.txt", FormatGroupFileList("g1", []string{"a.txt", "b.txt"}))
	require.Equal(t, "ERROR|group not found", FormatError("group not found"))
	require.Equal(t, "INFO|already a member", FormatInfo("already a member"))
}
