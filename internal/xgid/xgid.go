// Package xgid parses XGID position identifiers into engine game states.
//
// An XGID is a colon-delimited string: "XGID=<board>:<cube>:<cubeowner>:
// <onroll>:<dice>:<score0>:<score1>:<rules>:<matchto>:<cubeuse>". Field
// semantics are ported from the original parseXgid (src/xgid.c) and the
// 26-character board encoding from PositionFromXG, whose body is not in the
// retrieved source; that decode is grounded on kevung-xgparser's
// XGIDToPosition instead.
package xgid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/halvarsen/bgadvisor/pkg/engine"
)

// MaxCube mirrors the core's bound on the doubling cube (spec OutOfRange).
const MaxCube = 4096

// MaxScore mirrors the core's bound on match length.
const MaxScore = 64

// Parse decodes an XGID string into a GameState ready for evaluation. The
// board is always decoded relative to the player on roll: positions are
// parsed in fixed (X-absolute) orientation, then swapped into mover-relative
// orientation whenever the player on roll is not the fixed side, never the
// reverse.
func Parse(s string) (*engine.GameState, error) {
	const prefix = "XGID="
	if !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("xgid: missing %q prefix", prefix)
	}
	body := s[len(prefix):]

	fields := strings.Split(body, ":")
	if len(fields) < 1 {
		return nil, fmt.Errorf("xgid: empty body")
	}
	boardField := fields[0]
	tokens := fields[1:]
	if len(tokens) < 9 {
		return nil, fmt.Errorf("xgid: expected 9 fields after the board, got %d", len(tokens))
	}

	xBoard, oBoard, err := decodeBoard(boardField)
	if err != nil {
		return nil, err
	}

	logCube, err := strconv.Atoi(tokens[0])
	if err != nil {
		return nil, fmt.Errorf("xgid: invalid cube field %q: %w", tokens[0], err)
	}
	cube := 1 << uint(logCube)
	if cube <= 0 || cube > MaxCube {
		return nil, fmt.Errorf("xgid: cube value %d out of range", cube)
	}

	cubeOwnerField, err := strconv.Atoi(tokens[1])
	if err != nil {
		return nil, fmt.Errorf("xgid: invalid cube owner field %q: %w", tokens[1], err)
	}
	var cubeOwner int
	switch cubeOwnerField {
	case 1:
		cubeOwner = 1
	case -1:
		cubeOwner = 0
	default:
		cubeOwner = -1
	}

	onRollField, err := strconv.Atoi(tokens[2])
	if err != nil {
		return nil, fmt.Errorf("xgid: invalid player-on-roll field %q: %w", tokens[2], err)
	}
	moverIsX := onRollField > 0

	diceField := tokens[3]
	if diceField == "" {
		return nil, fmt.Errorf("xgid: empty dice field")
	}
	var dice [2]int
	var doubled bool
	switch diceField[0] {
	case 'D':
		doubled = true
	case '0', '1', '2', '3', '4', '5', '6':
		if len(diceField) != 2 {
			return nil, fmt.Errorf("xgid: malformed dice field %q", diceField)
		}
		dice[0] = int(diceField[0] - '0')
		dice[1] = int(diceField[1] - '0')
		if dice[0] == 0 && dice[1] != 0 || dice[0] != 0 && dice[1] == 0 {
			return nil, fmt.Errorf("xgid: malformed dice field %q", diceField)
		}
	default:
		return nil, fmt.Errorf("xgid: unsupported dice field %q", diceField)
	}

	score0, err := strconv.Atoi(tokens[4])
	if err != nil {
		return nil, fmt.Errorf("xgid: invalid score0 field %q: %w", tokens[4], err)
	}
	score1, err := strconv.Atoi(tokens[5])
	if err != nil {
		return nil, fmt.Errorf("xgid: invalid score1 field %q: %w", tokens[5], err)
	}

	rules, err := strconv.Atoi(tokens[6])
	if err != nil {
		return nil, fmt.Errorf("xgid: invalid rules field %q: %w", tokens[6], err)
	}
	matchTo, err := strconv.Atoi(tokens[7])
	if err != nil {
		return nil, fmt.Errorf("xgid: invalid match-length field %q: %w", tokens[7], err)
	}
	if matchTo > MaxScore {
		return nil, fmt.Errorf("xgid: match length %d exceeds %d", matchTo, MaxScore)
	}
	if (matchTo > 0 && score0 > matchTo) || (matchTo > 0 && score1 > matchTo) {
		return nil, fmt.Errorf("xgid: score %d/%d exceeds match length %d", score0, score1, matchTo)
	}

	var crawford, jacoby bool
	if matchTo > 0 {
		crawford = rules != 0
	} else {
		jacoby = rules&1 != 0
	}

	turn := 0
	if !moverIsX {
		turn = 1
	}

	gs := &engine.GameState{
		Turn:        turn,
		Dice:        dice,
		CubeValue:   cube,
		CubeOwner:   cubeOwner,
		MatchLength: matchTo,
		Score:       [2]int{score0, score1},
		Crawford:    crawford,
		Jacoby:      jacoby,
		Doubled:     doubled,
	}
	if moverIsX {
		gs.Board = engine.Board{oBoard, xBoard}
	} else {
		gs.Board = engine.Board{xBoard, oBoard}
	}

	return gs, nil
}

// decodeBoard decodes the 26-character XGID board field into fixed
// (X-absolute) per-side point arrays, each own-perspective indexed like
// engine.Board (index 0 nearest home, 23 farthest, 24 the bar).
//
// String index 0 is O's bar; index 25 is X's bar; indices 1-24 are the 24
// absolute board points, numbered directly (s[p] is absolute point p,
// not reversed). Uppercase A-O gives X's chequer count at that absolute
// point (stored directly, since X's own numbering runs the same
// direction as the absolute numbering); lowercase a-o gives O's count at
// that point (stored mirrored, at O's own point 25-p, since O counts
// from the opposite end of the board). '-' is empty.
//
// (Two independent checks settled this layout: the public starting
// position's lone occupied points line up exactly with the textbook
// 24/13/8/6 layout only under direct, 1-based indexing with the bar
// outside the 1-24 range; and a recorded mid-game position with two
// chequers on the bar and the logged reply "Bar/23(2) 13/11(2)" only
// makes sense - a 4-high stack at point 13 that the move splits - under
// this same layout.)
func decodeBoard(s string) (x, o [25]uint8, err error) {
	if len(s) != 26 {
		return x, o, fmt.Errorf("xgid: board field must be 26 characters, got %d", len(s))
	}
	for p := 1; p <= 24; p++ {
		c := s[p]
		switch {
		case c == '-':
		case c >= 'A' && c <= 'O':
			x[p-1] = uint8(c - 'A' + 1)
		case c >= 'a' && c <= 'o':
			o[24-p] = uint8(c - 'a' + 1)
		default:
			return x, o, fmt.Errorf("xgid: invalid board character %q at index %d", c, p)
		}
	}
	if c := s[0]; c >= 'a' && c <= 'o' {
		o[24] = uint8(c - 'a' + 1)
	}
	if c := s[25]; c >= 'A' && c <= 'O' {
		x[24] = uint8(c - 'A' + 1)
	}
	return x, o, nil
}
