// Package met provides match equity table functionality.
// Match equity tables give the probability of winning a match from a given score.
package met

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// MaxScore is the maximum supported match length
const MaxScore = 64

// MaxCubeLevel is the number of cube levels the gammon-price table covers
// (cube values 1, 2, 4, 8, 16, 32, 64).
const MaxCubeLevel = 7

// awayStdDev holds David Montgomery's per-away standard deviations used by
// ExtendMET to fill in match-equity entries beyond a table's native size.
// Index 0 (0-away) is unused; beyond index 11 (11-away) the value is capped.
var awayStdDev = [12]float64{0, 1.24, 1.27, 1.47, 1.50, 1.60, 1.61, 1.66, 1.68, 1.70, 1.72, 1.77}

func stdDevForAway(away int) float64 {
	if away <= 0 {
		return 0
	}
	if away >= len(awayStdDev) {
		return awayStdDev[len(awayStdDev)-1]
	}
	return awayStdDev[away]
}

// normalDistArea returns the probability mass of Normal(rMu, rSigma) in
// [rMin, rMax), following gnubg's NormalDistArea.
func normalDistArea(rMin, rMax, rMu, rSigma float64) float64 {
	if rSigma <= 0 {
		if rMu >= rMin && rMu < rMax {
			return 1
		}
		return 0
	}
	n := distuv.Normal{Mu: rMu, Sigma: rSigma}
	return n.CDF(rMax) - n.CDF(rMin)
}

// Table represents a match equity table
type Table struct {
	Name        string
	Description string
	Length      int // Native length of the table

	// Pre-Crawford match equities
	// PreCrawford[i][j] = P(player wins match | player needs i+1, opponent needs j+1)
	PreCrawford [MaxScore][MaxScore]float32

	// Post-Crawford match equities
	// PostCrawford[0][i] = P(player 0 wins | player 0 needs i+1 to win, Crawford game)
	// PostCrawford[1][i] = P(player 1 wins | player 1 needs i+1 to win, Crawford game)
	PostCrawford [2][MaxScore]float32

	// GammonPrices[level][away0][away1] holds the four coefficients that
	// convert cubeless gammon/backgammon rates into cubeful match equity at
	// the given cube level (0 => cube value 1, 1 => cube value 2, ...), for
	// a money-play-equivalent match score. Built once by BuildGammonPrices.
	GammonPrices [MaxCubeLevel][MaxScore][MaxScore][4]float32
}

// XML parsing structures
type xmlMET struct {
	XMLName      xml.Name          `xml:"met"`
	Info         xmlInfo           `xml:"info"`
	PreCrawford  xmlPreCrawford    `xml:"pre-crawford-table"`
	PostCrawford []xmlPostCrawford `xml:"post-crawford-table"`
}

type xmlInfo struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Length      int    `xml:"length"`
}

type xmlPreCrawford struct {
	Type string   `xml:"type,attr"`
	Rows []xmlRow `xml:"row"`
}

type xmlPostCrawford struct {
	Player string `xml:"player,attr"` // "0", "1", or "both"
	Type   string `xml:"type,attr"`
	Row    xmlRow `xml:"row"`
}

type xmlRow struct {
	Values []string `xml:"me"`
}

// LoadXML loads a match equity table from an XML file
func LoadXML(filename string) (*Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open MET file: %w", err)
	}
	defer f.Close()
	return ParseXML(f)
}

// ParseXML parses a match equity table from XML
func ParseXML(r io.Reader) (*Table, error) {
	var met xmlMET
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&met); err != nil {
		return nil, fmt.Errorf("failed to parse MET XML: %w", err)
	}

	t := &Table{
		Name:        met.Info.Name,
		Description: met.Info.Description,
		Length:      met.Info.Length,
	}

	// Parse pre-Crawford table
	for i, row := range met.PreCrawford.Rows {
		if i >= MaxScore {
			break
		}
		for j, val := range row.Values {
			if j >= MaxScore {
				break
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(val), 32)
			if err != nil {
				return nil, fmt.Errorf("failed to parse MET value [%d][%d]: %w", i, j, err)
			}
			t.PreCrawford[i][j] = float32(f)
		}
	}

	// Parse post-Crawford tables
	for _, pc := range met.PostCrawford {
		// Determine which players this table applies to
		var players []int
		switch pc.Player {
		case "0":
			players = []int{0}
		case "1":
			players = []int{1}
		case "both", "":
			players = []int{0, 1}
		default:
			continue
		}

		for _, player := range players {
			for j, val := range pc.Row.Values {
				if j >= MaxScore {
					break
				}
				f, err := strconv.ParseFloat(strings.TrimSpace(val), 32)
				if err != nil {
					return nil, fmt.Errorf("failed to parse post-Crawford value [%d][%d]: %w", player, j, err)
				}
				t.PostCrawford[player][j] = float32(f)
			}
		}
	}

	// If no post-Crawford table was supplied, extend one from the model below.
	if len(met.PostCrawford) == 0 {
		t.extendPostCrawford()
	}

	t.ExtendMET(MaxScore)
	t.BuildGammonPrices()

	return t, nil
}

// ExtendMET fills in match-equity entries beyond the table's native length
// using David Montgomery's normal-distribution model (gnubg's ExtendMET):
// the probability that the player who is away0 games from winning does so
// before the opponent, who is away1 games away, approximated by the area
// under a normal curve of the score difference with a per-score standard
// deviation. Native entries (both indices < t.Length) are left untouched.
func (t *Table) ExtendMET(nMaxScore int) {
	if nMaxScore > MaxScore {
		nMaxScore = MaxScore
	}
	for i := 0; i < nMaxScore; i++ {
		for j := 0; j < nMaxScore; j++ {
			if i < t.Length && j < t.Length {
				continue
			}
			away0, away1 := i+1, j+1
			sigma := math.Sqrt(stdDevForAway(away0)*stdDevForAway(away0)+
				stdDevForAway(away1)*stdDevForAway(away1)) * math.Sqrt(float64(away0+away1)/2.0)
			diff := float64(away0 - away1)
			var p float64
			if 6*sigma > diff {
				p = normalDistArea(diff, 6*sigma, 0, sigma)
			}
			t.PreCrawford[i][j] = float32(p)
		}
	}
}

// extendPostCrawford builds a post-Crawford table using the same
// normal-distribution family as ExtendMET, anchored against an opponent who
// needs exactly one more game (the defining feature of post-Crawford play).
// gnubg derives these from a separate gammon-rate recurrence
// (initPostCrawfordMET) that isn't available here; per spec.md's §9 note to
// keep the two tables independent rather than symmetrizing prematurely, the
// two PostCrawford arrays are computed and stored separately even though
// this model happens to produce the same values for both players.
func (t *Table) extendPostCrawford() {
	for i := 0; i < MaxScore; i++ {
		away0, away1 := i+1, 1
		sigma := math.Sqrt(stdDevForAway(away0)*stdDevForAway(away0)+
			stdDevForAway(away1)*stdDevForAway(away1)) * math.Sqrt(float64(away0+away1)/2.0)
		diff := float64(away0 - away1)
		var p float64
		if 6*sigma > diff {
			p = normalDistArea(diff, 6*sigma, 0, sigma)
		}
		t.PostCrawford[0][i] = float32(p)
		t.PostCrawford[1][i] = float32(p)
	}
}

// BuildGammonPrices precomputes the gammon-price coefficients for every
// cube level and score pair, grounded on gnubg's getGammonPrice/
// calcGammonPrices: at each cube level the equities of winning 1/2/3 times
// the current cube value (and losing once) are read off the match-equity
// table, and the four coefficients are the marginal gammon/backgammon value
// normalized against the win/loss spread, clamped to be non-negative (a
// small negative numerical artifact can appear right at the table
// boundary, same as gnubg's own FIXME).
func (t *Table) BuildGammonPrices() {
	for level := 0; level < MaxCubeLevel; level++ {
		cube := 1 << uint(level)
		for away0 := 1; away0 <= MaxScore; away0++ {
			for away1 := 1; away1 <= MaxScore; away1++ {
				matchTo := away0
				if away1 > matchTo {
					matchTo = away1
				}
				matchTo += 1
				score := [2]int{matchTo - away0, matchTo - away1}

				mwcWin1 := t.meAtScore(addPoints(score, 0, cube), matchTo, 0)
				mwcWin2 := t.meAtScore(addPoints(score, 0, 2*cube), matchTo, 0)
				mwcWin3 := t.meAtScore(addPoints(score, 0, 3*cube), matchTo, 0)
				mwcLose := t.meAtScore(addPoints(score, 1, cube), matchTo, 0)

				denom := mwcWin1 - mwcLose
				var gammon, bg float32
				if denom > 0.0001 {
					gammon = clampNonNeg(float32((mwcWin2 - mwcWin1) / denom))
					bg = clampNonNeg(float32((mwcWin3 - mwcWin2) / denom))
				}
				t.GammonPrices[level][away0-1][away1-1] = [4]float32{gammon, gammon, bg, bg}
			}
		}
	}
}

func addPoints(score [2]int, player, points int) [2]int {
	out := score
	out[player] += points
	return out
}

func clampNonNeg(v float32) float32 {
	if v < 0 {
		return 0
	}
	return v
}

// meAtScore is a small helper used only while building the gammon-price
// table: it clamps a hypothetical post-win/loss score into the table and
// reads the player-0 match equity, without the Crawford-game branch (the
// table is built once at load time, before any single game's Crawford state
// is known).
func (t *Table) meAtScore(score [2]int, matchTo, player int) float64 {
	return float64(t.GetME(score[0], score[1], matchTo, player, false))
}

// GetME returns the match equity for a given score
// score0, score1: current scores
// matchTo: match length
// player: which player's equity to return (0 or 1)
// crawford: true if this is the Crawford game
func (t *Table) GetME(score0, score1, matchTo, player int, crawford bool) float32 {
	if matchTo == 0 {
		// Money game - return 0.5
		return 0.5
	}

	away0 := matchTo - score0 - 1
	away1 := matchTo - score1 - 1

	// Check if match is already won
	if away0 < 0 {
		if player == 0 {
			return 1.0
		}
		return 0.0
	}
	if away1 < 0 {
		if player == 1 {
			return 1.0
		}
		return 0.0
	}

	// Clamp to table size
	if away0 >= MaxScore {
		away0 = MaxScore - 1
	}
	if away1 >= MaxScore {
		away1 = MaxScore - 1
	}

	var equity float32
	if crawford && (away0 == 0 || away1 == 0) {
		// Post-Crawford game
		if away0 == 0 {
			equity = 1.0 - t.PostCrawford[1][away1]
		} else {
			equity = t.PostCrawford[0][away0]
		}
	} else {
		// Pre-Crawford game
		equity = t.PreCrawford[away0][away1]
	}

	if player == 1 {
		equity = 1.0 - equity
	}
	return equity
}

// GetMEAfterResult returns match equity after winning/losing with given points
// player: which player's equity to return
// points: points won (1=normal, 2=gammon, 3=backgammon)
// winner: 0 or 1, who won
func (t *Table) GetMEAfterResult(score0, score1, matchTo, player, points, winner int, crawford bool) float32 {
	newScore0 := score0
	newScore1 := score1

	if winner == 0 {
		newScore0 += points
	} else {
		newScore1 += points
	}

	// Crawford rule: if a player reaches match point - 1, next game is Crawford
	newCrawford := false
	if !crawford {
		if newScore0 == matchTo-1 || newScore1 == matchTo-1 {
			newCrawford = true
		}
	}

	return t.GetME(newScore0, newScore1, matchTo, player, newCrawford)
}

// Default returns a simplified 11-point match equity table built in code,
// without loading a table from file
func Default() *Table {
	t := &Table{
		Name:        "Default MET",
		Description: "Simplified match equity table",
		Length:      11,
	}

	// Initialize with a points-away ratio approximation
	for i := 0; i < MaxScore; i++ {
		for j := 0; j < MaxScore; j++ {
			// Simple approximation: equity based on points-away ratio
			// More sophisticated would use recurrence relations
			pi := float64(i + 1)
			pj := float64(j + 1)
			t.PreCrawford[i][j] = float32(pj / (pi + pj))
		}
	}

	t.extendPostCrawford()
	t.ExtendMET(MaxScore)
	t.BuildGammonPrices()
	return t
}
