// Package models содержит структуры данных сервиса выдачи конфигураций:
// сессии, страны с пулами адресов, записи истории и статистику лимитов.
package models

import "time"

// ArtifactKind вид выдаваемого артефакта.
type ArtifactKind string

const (
	// KindWireguard текстовый конфиг WireGuard.
	KindWireguard ArtifactKind = "wireguard"
	// KindDNS список DNS-серверов.
	KindDNS ArtifactKind = "dns"
)

// IPFamily семейство IP-адресов.
type IPFamily string

const (
	// FamilyV4 IPv4.
	FamilyV4 IPFamily = "v4"
	// FamilyV6 IPv6.
	FamilyV6 IPFamily = "v6"
)

// Session сессия пользователя, хранится в KV под непрозрачным токеном.
// Сессия валидна, пока now < ExpiresAt; просроченные записи удаляются
// лениво при чтении.
type Session struct {
	UserID    string    `json:"user_id"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AddressPool пулы ещё не выданных адресов страны по семействам.
// Порядок внутри пула определяет порядок выдачи: берём с головы.
type AddressPool struct {
	IPv4 []string `json:"ipv4"`
	IPv6 []string `json:"ipv6"`
}

// Country запись страны с метаданными и пулом адресов.
type Country struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	NameEn string      `json:"name_en"`
	Flag   string      `json:"flag"`
	Pool   AddressPool `json:"pool"`
}

// CountrySummary публичное представление страны без содержимого пулов.
type CountrySummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	NameEn   string `json:"name_en"`
	Flag     string `json:"flag"`
	IPv4Left int    `json:"ipv4_left"`
	IPv6Left int    `json:"ipv6_left"`
}

// IssuedArtifact запись истории о выданном артефакте. Неизменяема после
// создания.
type IssuedArtifact struct {
	ID                string       `json:"id"`
	UserID            string       `json:"user_id"`
	Kind              ArtifactKind `json:"kind"`
	CountryID         string       `json:"country_id"`
	Family            IPFamily     `json:"family"`
	ConsumedAddresses []string     `json:"consumed_addresses"`
	Text              string       `json:"text"`
	CreatedAt         time.Time    `json:"created_at"`
}

// Usage дневная статистика выдач пользователя. Для администратора
// remaining — сентинел -1 (без ограничений).
type Usage struct {
	WireguardUsed      int  `json:"wireguard_used"`
	WireguardRemaining int  `json:"wireguard_remaining"`
	DNSUsed            int  `json:"dns_used"`
	DNSRemaining       int  `json:"dns_remaining"`
	IsAdmin            bool `json:"is_admin"`
}
