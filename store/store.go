// Package store reads and writes the flat-file representation of
// accounts and groups. Both files are rewritten in full on every save;
// there is no append mode and no transaction log.
package store

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"chatrelay/models"
)

type Store struct {
	usersPath  string
	groupsPath string
}

func New(usersPath, groupsPath string) *Store {
	return &Store{usersPath: usersPath, groupsPath: groupsPath}
}

// LoadAccounts reads the account file, one "name,password,online" line
// per account. A missing file yields an empty slice; malformed lines
// are logged and skipped.
func (s *Store) LoadAccounts() ([]models.Account, error) {
	f, err := os.Open(s.usersPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", s.usersPath, err)
	}
	defer f.Close()

	var accounts []models.Account
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			log.Printf("Skipping malformed account line in %s: %q", s.usersPath, line)
			continue
		}
		online, _ := strconv.ParseBool(strings.TrimSpace(parts[2]))
		accounts = append(accounts, models.Account{
			Name:     strings.TrimSpace(parts[0]),
			Password: strings.TrimSpace(parts[1]),
			Online:   online,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.usersPath, err)
	}
	return accounts, nil
}

// SaveAccounts rewrites the whole account file.
func (s *Store) SaveAccounts(accounts []models.Account) error {
	var sb strings.Builder
	for _, a := range accounts {
		sb.WriteString(a.Name)
		sb.WriteByte(',')
		sb.WriteString(a.Password)
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatBool(a.Online))
		sb.WriteByte('\n')
	}
	return writeFile(s.usersPath, sb.String())
}

// LoadGroups reads the group file, one "id,name,creator,member1,..."
// line per group. Lines with fewer than three fields are skipped.
func (s *Store) LoadGroups() ([]models.Group, error) {
	f, err := os.Open(s.groupsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", s.groupsPath, err)
	}
	defer f.Close()

	var groups []models.Group
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			log.Printf("Skipping malformed group line in %s: %q", s.groupsPath, line)
			continue
		}
		g := models.Group{
			ID:      strings.TrimSpace(parts[0]),
			Name:    strings.TrimSpace(parts[1]),
			Creator: strings.TrimSpace(parts[2]),
		}
		for _, m := range parts[3:] {
			if m = strings.TrimSpace(m); m != "" {
				g.Members = append(g.Members, m)
			}
		}
		groups = append(groups, g)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.groupsPath, err)
	}
	return groups, nil
}

// SaveGroups rewrites the whole group file.
func (s *Store) SaveGroups(groups []models.Group) error {
	var sb strings.Builder
	for _, g := range groups {
		sb.WriteString(g.ID)
		sb.WriteByte(',')
		sb.WriteString(g.Name)
		sb.WriteByte(',')
		sb.WriteString(g.Creator)
		for _, m := range g.Members {
			sb.WriteByte(',')
			sb.WriteString(m)
		}
		sb.WriteByte('\n')
	}
	return writeFile(s.groupsPath, sb.String())
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
