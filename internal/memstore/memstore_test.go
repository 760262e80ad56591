package memstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddUserDuplicateEmail(t *testing.T) {
	s := New()

	u, err := s.AddUser("alice", "alice@example.com", "pw")
	require.NoError(t, err)
	require.EqualValues(t, 1, u.ID)

	_, err = s.AddUser("other", "alice@example.com", "pw2")
	require.Error(t, err)

	require.True(t, s.UserExists("alice"))
	require.False(t, s.UserExists("bob"))

	pw, ok := s.Password("alice")
	require.True(t, ok)
	require.Equal(t, "pw", pw)
	_, ok = s.Password("bob")
	require.False(t, ok)
}

func TestBookCRUD(t *testing.T) {
	s := New()

	b1 := s.AddBook("1984", "George Orwell", 1949)
	b2 := s.AddBook("Dune", "Frank Herbert", 1965)
	require.EqualValues(t, 1, b1.ID)
	require.EqualValues(t, 2, b2.ID)

	got, ok := s.Book(b1.ID)
	require.True(t, ok)
	require.Equal(t, "1984", got.Title)

	require.True(t, s.DeleteBook(b1.ID))
	require.False(t, s.DeleteBook(b1.ID))
	_, ok = s.Book(b1.ID)
	require.False(t, ok)

	all := s.AllBooks()
	require.Len(t, all, 1)
	require.Equal(t, "Dune", all[0].Title)
}

func TestResetClearsEverything(t *testing.T) {
	s := New()
	_, err := s.AddUser("alice", "alice@example.com", "pw")
	require.NoError(t, err)
	s.AddBook("1984", "George Orwell", 1949)

	s.Reset()
	require.Empty(t, s.AllUsers())
	require.Empty(t, s.AllBooks())

	// ID 计数器也要归位
	u, err := s.AddUser("bob", "bob@example.com", "pw")
	require.NoError(t, err)
	require.EqualValues(t, 1, u.ID)
}
