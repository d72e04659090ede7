package domain

// Cell is one position of the pyramid. Value is 0 while empty.
type Cell struct {
	ID          int    `json:"id"`
	Row         int    `json:"row"`
	Player      Player `json:"player"`
	Value       int    `json:"value,omitempty"`
	IsBlackHole bool   `json:"isBlackHole,omitempty"`
}

// Empty reports whether no player occupies the cell.
func (c Cell) Empty() bool { return c.Player == NoPlayer }

// Snapshot is a read-only copy of the game state for rendering and policies.
type Snapshot struct {
	Cells         []Cell `json:"cells"`
	CurrentPlayer Player `json:"currentPlayer"`
	NextNumber    [2]int `json:"nextNumber"`
	Filled        int    `json:"filled"`
	Phase         Phase  `json:"phase"`
}

// NextFor returns the number p will place on its next move.
func (s Snapshot) NextFor(p Player) int {
	if p == Player2 {
		return s.NextNumber[1]
	}
	return s.NextNumber[0]
}

// EmptyCells lists the ids of unoccupied cells in id order.
func (s Snapshot) EmptyCells() []int {
	out := make([]int, 0, len(s.Cells))
	for _, c := range s.Cells {
		if c.Empty() {
			out = append(out, c.ID)
		}
	}
	return out
}

// MatchConfig is the per-game mode and difficulty selection.
type MatchConfig struct {
	Mode       Mode       `json:"mode"`
	Difficulty Difficulty `json:"difficulty"`
}

// ComputerControls reports whether p is driven by the opponent policy.
func (m MatchConfig) ComputerControls(p Player) bool {
	return m.Mode == HumanVsComputer && p == Player2
}

// DisplayState is what the UI shows between moves.
type DisplayState struct {
	CurrentPlayer Player `json:"currentPlayer"`
	NextNumber    int    `json:"nextNumber"`
	Thinking      bool   `json:"thinking"`
	GameOver      bool   `json:"gameOver"`
	Label         string `json:"label"`
}

// FinalResults is available once the game is over.
type FinalResults struct {
	BlackHole      int     `json:"blackHole"`
	BlackHoleLabel string  `json:"blackHoleLabel"`
	Adjacent       []int   `json:"adjacent"`
	Score1         int     `json:"score1"`
	Score2         int     `json:"score2"`
	Outcome        Outcome `json:"outcome"`
	Player2Label   string  `json:"player2Label"`
	Message        string  `json:"message"`
}

// MoveResult describes the effect of an attempted move.
type MoveResult struct {
	Applied bool          `json:"applied"`
	Cell    *Cell         `json:"cell,omitempty"`
	Display DisplayState  `json:"display"`
	Results *FinalResults `json:"results,omitempty"`
}

// Hint suggests low-risk cells for the player on turn.
type Hint struct {
	Number int         `json:"number"`
	Cells  []int       `json:"cells"`
	Risk   map[int]int `json:"risk"`
}

// UpdateKind tags what changed in an Update.
type UpdateKind string

const (
	UpdateInit     UpdateKind = "init"
	UpdateMove     UpdateKind = "move"
	UpdateThinking UpdateKind = "thinking"
	UpdateOver     UpdateKind = "over"
)

// Update is pushed to the renderer after each state change.
type Update struct {
	Kind     UpdateKind    `json:"kind"`
	Cell     *Cell         `json:"cell,omitempty"`
	Display  DisplayState  `json:"display"`
	Snapshot Snapshot      `json:"snapshot"`
	Results  *FinalResults `json:"results,omitempty"`
}
