package directory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"chatrelay/models"
)

type fakeSaver struct {
	accountSaves int
	groupSaves   int
	err          error
}

func (f *fakeSaver) SaveAccounts([]models.Account) error {
	f.accountSaves++
	return f.err
}

func (f *fakeSaver) SaveGroups([]models.Group) error {
	f.groupSaves++
	return f.err
}

func TestRegisterAndDuplicate(t *testing.T) {
	saver := &fakeSaver{}
	users := NewUsers(nil, saver)

	require.NoError(t, users.Register("alice", "pw"))
	require.True(t, users.Exists("alice"))
	require.Equal(t, 1, saver.accountSaves)

	err := users.Register("alice", "other")
	require.ErrorIs(t, err, ErrUserExists)
	require.Len(t, users.All(), 1)
	require.Equal(t, 1, saver.accountSaves, "failed register must not persist")
}

func TestSetOnlinePersists(t *testing.T) {
	saver := &fakeSaver{}
	users := NewUsers([]models.Account{{Name: "alice", Password: "pw"}}, saver)

	users.SetOnline("alice", true)
	require.True(t, users.All()[0].Online)
	require.Equal(t, 1, saver.accountSaves)

	// Unknown names are ignored without persisting.
	users.SetOnline("ghost", true)
	require.Equal(t, 1, saver.accountSaves)
}

func TestSaveFailureKeepsMemoryAuthoritative(t *testing.T) {
	saver := &fakeSaver{err: errors.New("disk full")}
	users := NewUsers(nil, saver)

	require.NoError(t, users.Register("alice", "pw"))
	require.True(t, users.Exists("alice"))
}

func TestAllReturnsSnapshot(t *testing.T) {
	users := NewUsers([]models.Account{{Name: "alice", Password: "pw"}}, nil)

	snap := users.All()
	snap[0].Name = "mutated"
	require.Equal(t, "alice", users.All()[0].Name)
}

func TestCreateGroupDedupsAndLeadsWithCreator(t *testing.T) {
	saver := &fakeSaver{}
	groups := NewGroups(nil, saver)

	g, err := groups.Create("483920", "team", "alice", []string{"bob", "", "alice", "bob", "carol"})
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob", "carol"}, g.Members)
	require.Equal(t, "alice", g.Creator)
	require.Equal(t, 1, saver.groupSaves)

	_, err = groups.Create("483920", "other", "bob", nil)
	require.ErrorIs(t, err, ErrGroupExists)
}

func TestFindByIDAndName(t *testing.T) {
	groups := NewGroups([]models.Group{
		{ID: "483920", Name: "team", Creator: "alice", Members: []string{"alice"}},
	}, nil)

	g, ok := groups.FindByID("483920")
	require.True(t, ok)
	require.Equal(t, "team", g.Name)

	g, ok = groups.FindByName("team")
	require.True(t, ok)
	require.Equal(t, "483920", g.ID)

	_, ok = groups.FindByID("000000")
	require.False(t, ok)
}

func TestAddMemberIdempotent(t *testing.T) {
	saver := &fakeSaver{}
	groups := NewGroups([]models.Group{
		{ID: "483920", Name: "team", Creator: "alice", Members: []string{"alice"}},
	}, saver)

	g, err := groups.AddMember("483920", "bob")
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, g.Members)
	require.Equal(t, 1, saver.groupSaves)

	g, err = groups.AddMember("483920", "bob")
	require.ErrorIs(t, err, ErrAlreadyMember)
	require.Len(t, g.Members, 2, "cardinality must not change")
	require.Equal(t, 1, saver.groupSaves)

	_, err = groups.AddMember("000000", "bob")
	require.ErrorIs(t, err, ErrGroupNotFound)
}

func TestMemberSetsAreCopies(t *testing.T) {
	groups := NewGroups([]models.Group{
		{ID: "483920", Name: "team", Creator: "alice", Members: []string{"alice"}},
	}, nil)

	g, _ := groups.FindByID("483920")
	g.Members[0] = "mutated"

	g2, _ := groups.FindByID("483920")
	require.Equal(t, []string{"alice"}, g2.Members)
}
