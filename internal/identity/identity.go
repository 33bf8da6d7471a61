package identity

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Pools holds the static reference data used when a customer field has to be
// fabricated. They are injected at construction so tests can pin them down.
type Pools struct {
	MaleNames        []string
	FemaleNames      []string
	Surnames         []string
	EmailDomains     []string
	PlaceholderPhone string
}

func DefaultPools() Pools {
	return Pools{
		MaleNames: []string{
			"João", "Pedro", "Lucas", "Miguel", "Arthur", "Gabriel", "Bernardo", "Rafael",
			"Gustavo", "Felipe", "Daniel", "Matheus", "Bruno", "Thiago", "Carlos",
		},
		FemaleNames: []string{
			"Maria", "Ana", "Julia", "Sofia", "Isabella", "Helena", "Valentina", "Laura",
			"Alice", "Manuela", "Beatriz", "Clara", "Luiza", "Mariana", "Sophia",
		},
		Surnames: []string{
			"Silva", "Santos", "Oliveira", "Souza", "Rodrigues", "Ferreira", "Alves",
			"Pereira", "Lima", "Gomes", "Costa", "Ribeiro", "Martins", "Carvalho",
			"Almeida", "Lopes", "Soares", "Fernandes", "Vieira", "Barbosa",
		},
		EmailDomains:     []string{"gmail.com", "hotmail.com", "outlook.com", "yahoo.com.br", "uol.com.br"},
		PlaceholderPhone: "(11) 99999-9999",
	}
}

// Input is the raw, possibly absent or malformed customer data from the
// checkout request.
type Input struct {
	Name     string
	Document string
	Phone    string
	Email    string
}

// Record is a complete identity: every field is either the validated client
// value or a fabricated one. UsedRealData is true when at least one field
// came from the client.
type Record struct {
	Name         string
	Email        string
	Document     string
	Phone        string
	UsedRealData bool
}

type Synthesizer struct {
	pools Pools
	rng   *rand.Rand
}

// NewSynthesizer builds a synthesizer over the given pools. A nil rng gets a
// time-seeded one; tests pass a fixed seed instead.
func NewSynthesizer(pools Pools, rng *rand.Rand) *Synthesizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Synthesizer{pools: pools, rng: rng}
}

// Complete validates each supplied field independently and fabricates the
// ones that are missing or invalid.
func (s *Synthesizer) Complete(in Input) Record {
	var rec Record

	if name := strings.TrimSpace(in.Name); len(name) >= 3 {
		rec.Name = name
		rec.UsedRealData = true
	} else {
		rec.Name = s.generateName()
	}

	if in.Document != "" {
		cpf := OnlyDigits(in.Document)
		if ValidateCPF(cpf) {
			rec.Document = cpf
			rec.UsedRealData = true
		}
	}
	if rec.Document == "" {
		rec.Document = s.GenerateCPF()
	}

	if phone, ok := FormatPhone(in.Phone); ok {
		rec.Phone = phone
		rec.UsedRealData = true
	} else {
		rec.Phone = s.pools.PlaceholderPhone
	}

	if email := strings.TrimSpace(in.Email); ValidEmail(email) {
		rec.Email = email
		rec.UsedRealData = true
	} else {
		rec.Email = s.generateEmail(rec.Name)
	}

	return rec
}

func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateCPF checks the two verifier digits of an 11-digit CPF. The input
// must already be digits-only. Sequences of a single repeated digit pass the
// checksum but are statistically reserved as invalid.
func ValidateCPF(cpf string) bool {
	if len(cpf) != 11 {
		return false
	}
	if allSameDigit(cpf) {
		return false
	}
	for t := 9; t < 11; t++ {
		sum := 0
		for c := 0; c < t; c++ {
			sum += int(cpf[c]-'0') * ((t + 1) - c)
		}
		d := ((10 * sum) % 11) % 10
		if int(cpf[t]-'0') != d {
			return false
		}
	}
	return true
}

// GenerateCPF draws nine random digits and appends the two verifier digits.
// Repeated-digit sequences are rejected and redrawn.
func (s *Synthesizer) GenerateCPF() string {
	for {
		digits := make([]int, 0, 11)
		for i := 0; i < 9; i++ {
			digits = append(digits, s.rng.Intn(10))
		}
		digits = append(digits, verifierDigit(digits, 10))
		digits = append(digits, verifierDigit(digits, 11))

		var b strings.Builder
		for _, d := range digits {
			fmt.Fprintf(&b, "%d", d)
		}
		cpf := b.String()
		if !allSameDigit(cpf) {
			return cpf
		}
	}
}

// verifierDigit applies the weighted-sum-mod-11 rule with descending weights
// starting at firstWeight.
func verifierDigit(digits []int, firstWeight int) int {
	sum := 0
	for i, d := range digits {
		sum += d * (firstWeight - i)
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// FormatPhone strips formatting and, when the result has 10 or 11 digits,
// renders it as (DD) NNNN-NNNN or (DD) NNNNN-NNNN.
func FormatPhone(raw string) (string, bool) {
	digits := OnlyDigits(raw)
	switch len(digits) {
	case 11:
		return "(" + digits[0:2] + ") " + digits[2:7] + "-" + digits[7:], true
	case 10:
		return "(" + digits[0:2] + ") " + digits[2:6] + "-" + digits[6:], true
	}
	return "", false
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

func ValidEmail(s string) bool {
	return s != "" && emailRe.MatchString(s)
}

func (s *Synthesizer) generateName() string {
	var first string
	if s.rng.Intn(2) == 1 {
		first = s.pools.MaleNames[s.rng.Intn(len(s.pools.MaleNames))]
	} else {
		first = s.pools.FemaleNames[s.rng.Intn(len(s.pools.FemaleNames))]
	}
	sur1 := s.pools.Surnames[s.rng.Intn(len(s.pools.Surnames))]
	sur2 := s.pools.Surnames[s.rng.Intn(len(s.pools.Surnames))]
	return first + " " + sur1 + " " + sur2
}

func (s *Synthesizer) generateEmail(name string) string {
	local := asciiFold(strings.ToLower(strings.TrimSpace(name)))
	var b strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	local = b.String()
	if local == "" {
		local = "cliente"
	}
	domain := s.pools.EmailDomains[s.rng.Intn(len(s.pools.EmailDomains))]
	return fmt.Sprintf("%s%d@%s", local, s.rng.Intn(999)+1, domain)
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// asciiFold strips diacritics (João -> Joao).
func asciiFold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}
