// Package session holds per-interaction capture state.
//
// 録音→文字起こし→編集→保存の1サイクル分の一時状態を保持する。
// 永続化は一切行わず、セッション破棄とともに消える
package session

import (
	"crypto/md5"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session は1ユーザー操作分の一時状態
// 新しい録音（チェックサム変化）で文字起こしと編集中テキストは無効化される
type Session struct {
	mu         sync.Mutex
	audio      []byte
	checksum   string
	transcript string
	draft      string
}

// Checksum は音声バイト列のMD5ダイジェスト（16進文字列）を返す
// 同一バイト列なら常に同一値になり、「同じ録音か」の判定に使う
func Checksum(audio []byte) string {
	sum := md5.Sum(audio)
	return hex.EncodeToString(sum[:])
}

// SetAudio は録音データを設定する
// 前回と異なる録音（チェックサム不一致）の場合は文字起こしと
// 編集中テキストをリセットし、trueを返す。同一録音なら何も消さずfalse
func (s *Session) SetAudio(audio []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := Checksum(audio)
	if s.checksum == current {
		return false
	}

	s.audio = make([]byte, len(audio))
	copy(s.audio, audio)
	s.checksum = current
	s.transcript = ""
	s.draft = ""
	return true
}

// Audio は録音データのコピーを返す
func (s *Session) Audio() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	audio := make([]byte, len(s.audio))
	copy(audio, s.audio)
	return audio
}

// AudioChecksum は現在の録音のチェックサムを返す（録音なしは空文字）
func (s *Session) AudioChecksum() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checksum
}

// SetTranscript は文字起こし結果を設定し、編集中テキストの初期値にする
func (s *Session) SetTranscript(transcript string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript = transcript
	s.draft = transcript
}

// Transcript は文字起こし結果を返す
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// SetDraft はユーザー編集後のテキストを設定する
func (s *Session) SetDraft(draft string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = draft
}

// Draft は編集中テキストを返す
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Manager はセッションIDとSessionの対応を保持する
// セッションは最終アクセスからTTL経過で回収される
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
}

type sessionEntry struct {
	session  *Session
	lastSeen time.Time
}

// DefaultTTL はセッションの既定有効期間
const DefaultTTL = 30 * time.Minute

// NewManager はManagerを作成する
// ttlが0以下の場合はDefaultTTLを使用
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
	}
}

// Get は既存セッションを返す。存在しないか期限切れの場合はnil
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictLocked()

	entry, ok := m.sessions[id]
	if !ok {
		return nil
	}
	entry.lastSeen = time.Now()
	return entry.session
}

// Create は新しいセッションを作成し、IDとセッションを返す
func (m *Manager) Create() (string, *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictLocked()

	id := uuid.New().String()
	session := &Session{}
	m.sessions[id] = &sessionEntry{
		session:  session,
		lastSeen: time.Now(),
	}
	return id, session
}

// evictLocked は期限切れセッションを回収する（mu保持前提）
func (m *Manager) evictLocked() {
	deadline := time.Now().Add(-m.ttl)
	for id, entry := range m.sessions {
		if entry.lastSeen.Before(deadline) {
			delete(m.sessions, id)
		}
	}
}
