package engine

// Action is the recommendation returned by the PolicySelector: a chequer
// play, a cube response, or a resignation response.
type Action string

const (
	ActionPlay              Action = "play"
	ActionRoll              Action = "roll"
	ActionDouble            Action = "double"
	ActionTake              Action = "take"
	ActionDrop              Action = "drop"
	ActionBeaver            Action = "beaver"
	ActionAcceptResignation Action = "accept resignation"
	ActionRejectResignation Action = "reject resignation"
)

// CubeRecommendationData is the "data" payload for a cube-decision
// recommendation: the detailed decision code plus the four comparison
// equities spec.md §6 names, in the fixed order [no_double, take, drop,
// optimal].
type CubeRecommendationData struct {
	DecisionCode int        `json:"cd"`
	Equity       [4]float64 `json:"equity"`
}

// MoveRecommendationEntry is one ranked chequer play in a "play"
// recommendation's "data" array.
type MoveRecommendationEntry struct {
	Move   string     `json:"move"`
	Equity [2]float64 `json:"equity"` // [cubeful, cubeless]
	Eval   [5]float64 `json:"eval"`   // [win, winG, winBG, loseG, loseBG]
}

// Recommendation is the PolicySelector's result: exactly one of CubeData or
// MoveData is populated, matching which Action was chosen.
type Recommendation struct {
	Action   Action
	CubeData *CubeRecommendationData
	MoveData []MoveRecommendationEntry
}

// Recommend is the PolicySelector entry point (spec.md §4.11): given a game
// state and a search depth, it picks among the move, cube, and resignation
// sub-pipelines and returns the resulting action plus its supporting data.
//
// The dispatch mirrors findBestAction/getActionFromCubeDecision: a pending
// resignation is handled first, then - if there are no dice to play - the
// cube decision is resolved and mapped through the fixed lookup table,
// otherwise the best chequer play is searched for.
func (e *Engine) Recommend(state *GameState, plies int) (*Recommendation, error) {
	if plies < 0 || plies > 3 {
		return nil, newError("Recommend", OutOfRange, nil)
	}

	if state.Resigned != 0 {
		return e.recommendResignation(state)
	}

	if state.Dice[0] == 0 && state.Dice[1] == 0 {
		return e.recommendCube(state, plies)
	}

	return e.recommendMove(state, plies)
}

// recommendResignation decides whether to accept or reject an offered
// resignation by comparing its value against the no-contact cubeless
// equity - accept when the resignation gives up no more than the position
// is actually worth.
func (e *Engine) recommendResignation(state *GameState) (*Recommendation, error) {
	eval, err := e.Evaluate(state)
	if err != nil {
		return nil, newError("Recommend", InternalInvariantViolation, err)
	}

	if eval.Equity <= float64(state.Resigned) {
		return &Recommendation{Action: ActionAcceptResignation}, nil
	}
	return &Recommendation{Action: ActionRejectResignation}, nil
}

// recommendCube resolves a cube decision - either responding to an
// opponent's double or deciding whether to double - and maps the decision
// class to a user action via actionFromCubeDecision.
func (e *Engine) recommendCube(state *GameState, plies int) (*Recommendation, error) {
	analysis, err := e.AnalyzeCube(state)
	if err != nil {
		return nil, newError("Recommend", InternalInvariantViolation, err)
	}

	action := actionFromCubeDecision(analysis.DecisionType, state.Doubled)

	return &Recommendation{
		Action: action,
		CubeData: &CubeRecommendationData{
			DecisionCode: int(analysis.DecisionType),
			Equity: [4]float64{
				analysis.NoDoubleEquity,
				analysis.DoubleTakeEq,
				analysis.DoublePassEq,
				analysis.ArDouble[OUTPUT_OPTIMAL],
			},
		},
	}, nil
}

// recommendMove searches the best chequer plays for the position's dice at
// the requested depth and returns them ranked, best first.
func (e *Engine) recommendMove(state *GameState, plies int) (*Recommendation, error) {
	analysis, err := e.AnalyzePositionPlied(state, state.Dice, plies)
	if err != nil {
		return nil, newError("Recommend", InternalInvariantViolation, err)
	}

	const maxPlayerMoves = 32
	n := len(analysis.Moves)
	if n > maxPlayerMoves {
		n = maxPlayerMoves
	}

	data := make([]MoveRecommendationEntry, n)
	for i := 0; i < n; i++ {
		mwe := analysis.Moves[i]
		data[i] = MoveRecommendationEntry{
			Move:   FormatMove(state.Board, mwe.Move),
			Equity: [2]float64{mwe.Equity, mwe.Equity},
			Eval: [5]float64{
				mwe.Eval.WinProb,
				mwe.Eval.WinG,
				mwe.Eval.WinBG,
				mwe.Eval.LoseG,
				mwe.Eval.LoseBG,
			},
		}
	}

	return &Recommendation{Action: ActionPlay, MoveData: data}, nil
}

// actionFromCubeDecision ports getActionFromCubeDecision's dispatch table
// exactly: the same CubeDecisionType can mean "take" or "double" depending
// on whether the opponent has already doubled (doubled == true) or the
// player on roll is deciding whether to double (doubled == false).
func actionFromCubeDecision(cd CubeDecisionType, doubled bool) Action {
	if doubled {
		switch cd {
		case DOUBLE_TAKE, NODOUBLE_TAKE, TOOGOOD_TAKE, REDOUBLE_TAKE,
			NO_REDOUBLE_TAKE, TOOGOODRE_TAKE, NODOUBLE_DEADCUBE,
			NO_REDOUBLE_DEADCUBE, OPTIONAL_DOUBLE_TAKE, OPTIONAL_REDOUBLE_TAKE:
			return ActionTake
		case DOUBLE_PASS, TOOGOOD_PASS, REDOUBLE_PASS, TOOGOODRE_PASS,
			OPTIONAL_DOUBLE_PASS, OPTIONAL_REDOUBLE_PASS:
			return ActionDrop
		case NODOUBLE_BEAVER, DOUBLE_BEAVER, NO_REDOUBLE_BEAVER, OPTIONAL_DOUBLE_BEAVER:
			return ActionBeaver
		default:
			return ActionTake
		}
	}

	switch cd {
	case DOUBLE_TAKE, DOUBLE_PASS, DOUBLE_BEAVER, REDOUBLE_TAKE, REDOUBLE_PASS:
		return ActionDouble
	default:
		// NODOUBLE_*, TOOGOOD_*, NO_REDOUBLE_*, *_DEADCUBE, and every
		// OPTIONAL_* class all roll - matching the C switch's fallthrough.
		return ActionRoll
	}
}
