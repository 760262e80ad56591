// Package memstore 是早期无数据库版本的存储：一个进程内的图书/用户清单。
// 老版本用的是包级全局变量，这里改成显式的 Store 对象，由调用方持有、
// 测试间用 Reset 清空，不再靠模块级状态。并发写不做保证之外的事，
// 内部用一把锁串行化访问。
package memstore

import (
	"fmt"
	"sync"
)

type User struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Book struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
}

type Store struct {
	mu         sync.Mutex
	users      map[uint]User
	books      map[uint]Book
	nextUserID uint
	nextBookID uint
}

func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.users = make(map[uint]User)
	s.books = make(map[uint]Book)
	s.nextUserID = 1
	s.nextBookID = 1
}

// Reset 清空全部状态，测试之间调用
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Store) AddUser(name, email, password string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return User{}, fmt.Errorf("user with email %q already exists", email)
		}
	}
	u := User{ID: s.nextUserID, Name: name, Email: email, Password: password}
	s.users[u.ID] = u
	s.nextUserID++
	return u, nil
}

func (s *Store) AddBook(title, author string, year int) Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := Book{ID: s.nextBookID, Title: title, Author: author, Year: year}
	s.books[b.ID] = b
	s.nextBookID++
	return b
}

func (s *Store) UserExists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Name == name {
			return true
		}
	}
	return false
}

// Password 按用户名取密码；老版本明文存储的行为原样保留（它只活在这个遗留变体里）
func (s *Store) Password(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Name == name {
			return u.Password, true
		}
	}
	return "", false
}

func (s *Store) Book(id uint) (Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	return b, ok
}

func (s *Store) DeleteBook(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return false
	}
	delete(s.books, id)
	return true
}

// AllUsers 按 ID 升序返回快照
func (s *Store) AllUsers() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]User, 0, len(s.users))
	for id := uint(1); id < s.nextUserID; id++ {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

func (s *Store) AllBooks() []Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Book, 0, len(s.books))
	for id := uint(1); id < s.nextBookID; id++ {
		if b, ok := s.books[id]; ok {
			out = append(out, b)
		}
	}
	return out
}
