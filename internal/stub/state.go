package stub

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	errNotFound        = errors.New("not found")
	errAlreadyAnswered = errors.New("question already answered")
)

type cityOption struct {
	ID      string `json:"id"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type question struct {
	ID           string       `json:"id"`
	Clue         string       `json:"clue"`
	Options      []cityOption `json:"options"`
	TargetCityID string       `json:"targetCityId"`
	FunFact      string       `json:"-"`
	Trivia       string       `json:"-"`
}

type gameSession struct {
	ID       string
	Owner    string
	Score    int
	Served   int
	Answered map[string]bool
}

type challengeRec struct {
	ID         string
	Link       string
	Owner      string
	Score      int
	AcceptedBy string
}

// store holds all stub state in memory, guarded by one mutex.
type store struct {
	mu         sync.Mutex
	bank       []question
	sessions   map[string]*gameSession
	challenges map[string]*challengeRec
}

func newStore() *store {
	return &store{
		bank:       questionBank(),
		sessions:   make(map[string]*gameSession),
		challenges: make(map[string]*challengeRec),
	}
}

func (s *store) startSession(owner string) *gameSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &gameSession{
		ID:       uuid.NewString(),
		Owner:    owner,
		Answered: make(map[string]bool),
	}
	s.sessions[sess.ID] = sess
	return sess
}

// nextQuestion serves the bank round-robin so a stub game never runs
// out of questions.
func (s *store) nextQuestion(sessionID string) (question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return question{}, errNotFound
	}
	q := s.bank[sess.Served%len(s.bank)]
	sess.Served++
	return q, nil
}

func (s *store) submitAnswer(sessionID, questionID, optionID string) (isCorrect bool, score int, q question, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return false, 0, question{}, errNotFound
	}
	var found bool
	for _, b := range s.bank {
		if b.ID == questionID {
			q = b
			found = true
			break
		}
	}
	if !found {
		return false, 0, question{}, errNotFound
	}
	if sess.Answered[questionID] {
		return false, sess.Score, q, errAlreadyAnswered
	}
	sess.Answered[questionID] = true

	if optionID == q.TargetCityID {
		sess.Score++
		isCorrect = true
	}
	return isCorrect, sess.Score, q, nil
}

func (s *store) createChallenge(owner, sessionID string) (*challengeRec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.Owner != owner {
		return nil, errNotFound
	}

	ch := &challengeRec{
		ID:    uuid.NewString(),
		Link:  strings.Split(uuid.NewString(), "-")[0],
		Owner: owner,
		Score: sess.Score,
	}
	s.challenges[ch.Link] = ch
	return ch, nil
}

func (s *store) challengeByLink(link string) (*challengeRec, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[link]
	if !ok {
		return nil, errNotFound
	}
	cp := *ch
	return &cp, nil
}

func (s *store) acceptChallenge(link, acceptor string) (*gameSession, error) {
	s.mu.Lock()
	ch, ok := s.challenges[link]
	if !ok {
		s.mu.Unlock()
		return nil, errNotFound
	}
	ch.AcceptedBy = acceptor
	s.mu.Unlock()

	return s.startSession(acceptor), nil
}

func questionBank() []question {
	return []question{
		{
			ID:   "q-lima",
			Clue: "Founded by Pizarro, this capital almost never sees rain.",
			Options: []cityOption{
				{ID: "lima", City: "Lima", Country: "Peru"},
				{ID: "quito", City: "Quito", Country: "Ecuador"},
				{ID: "bogota", City: "Bogota", Country: "Colombia"},
			},
			TargetCityID: "lima",
			FunFact:      "Lima is the second-largest desert city in the world after Cairo.",
			Trivia:       "Its historic centre is a UNESCO World Heritage Site.",
		},
		{
			ID:   "q-cusco",
			Clue: "Once the navel of an empire, its walls fit stones without mortar.",
			Options: []cityOption{
				{ID: "cusco", City: "Cusco", Country: "Peru"},
				{ID: "lapaz", City: "La Paz", Country: "Bolivia"},
				{ID: "sucre", City: "Sucre", Country: "Bolivia"},
			},
			TargetCityID: "cusco",
			FunFact:      "Cusco was the capital of the Inca Empire.",
			Trivia:       "The city sits at about 3,400 metres above sea level.",
		},
		{
			ID:   "q-arequipa",
			Clue: "The white city, built from volcanic sillar stone.",
			Options: []cityOption{
				{ID: "arequipa", City: "Arequipa", Country: "Peru"},
				{ID: "trujillo", City: "Trujillo", Country: "Peru"},
				{ID: "santiago", City: "Santiago", Country: "Chile"},
			},
			TargetCityID: "arequipa",
			FunFact:      "Three volcanoes overlook Arequipa: Misti, Chachani and Pichu Pichu.",
			Trivia:       "Sillar is a pearly white volcanic rock.",
		},
		{
			ID:   "q-iquitos",
			Clue: "The largest city in the world unreachable by road.",
			Options: []cityOption{
				{ID: "iquitos", City: "Iquitos", Country: "Peru"},
				{ID: "manaus", City: "Manaus", Country: "Brazil"},
				{ID: "leticia", City: "Leticia", Country: "Colombia"},
			},
			TargetCityID: "iquitos",
			FunFact:      "Iquitos can only be reached by river or air.",
			Trivia:       "It boomed during the rubber era of the late 1800s.",
		},
		{
			ID:   "q-puno",
			Clue: "Gateway to a lake with floating islands of woven reeds.",
			Options: []cityOption{
				{ID: "puno", City: "Puno", Country: "Peru"},
				{ID: "copacabana", City: "Copacabana", Country: "Bolivia"},
				{ID: "juliaca", City: "Juliaca", Country: "Peru"},
			},
			TargetCityID: "puno",
			FunFact:      "Lake Titicaca is the highest navigable lake in the world.",
			Trivia:       "The Uros people build their islands from totora reeds.",
		},
		{
			ID:   "q-trujillo",
			Clue: "City of eternal spring, near the largest adobe city of the ancient world.",
			Options: []cityOption{
				{ID: "trujillo", City: "Trujillo", Country: "Peru"},
				{ID: "chiclayo", City: "Chiclayo", Country: "Peru"},
				{ID: "piura", City: "Piura", Country: "Peru"},
			},
			TargetCityID: "trujillo",
			FunFact:      "Chan Chan, near Trujillo, was the capital of the Chimu culture.",
			Trivia:       "The marinera dance has its national contest here.",
		},
	}
}
