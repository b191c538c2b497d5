package dialog

// Stage identifies a position in the dialog graph. The questionnaire is
// mostly linear; StageRelax routes back to StageCuisine after clearing one
// criterion, and the reservation tail loops back to StageSearchAgain.
type Stage int

const (
	StageCuisine Stage = iota
	StageRating
	StagePrice
	StageAmbiance
	StageWifi
	StageAccessibility
	StageDietary
	StageSeating
	StageBarLounge
	StageEntertainment
	StagePayment
	StageView
	StageSustainability
	StageDishPrompt
	StageDishName
	StageExtraPrompt
	StageExtraName
	StageExtraValue
	StageConfirm
	StageRelax
	StageReserveOffer
	StageSearchAgain
	StagePartySize
	StageTime
	StageAllergies
	StageGuestName
	StageSendConfirm

	stageCount
)

var stageNames = [stageCount]string{
	"cuisine", "rating", "price", "ambiance", "wifi", "accessibility",
	"dietary", "seating", "bar_lounge", "entertainment", "payment", "view",
	"sustainability", "dish_prompt", "dish_name", "extra_prompt",
	"extra_name", "extra_value", "confirm", "relax", "reserve_offer",
	"search_again", "party_size", "time", "allergies", "guest_name",
	"send_confirm",
}

func (s Stage) String() string {
	if s < 0 || s >= stageCount {
		return "invalid"
	}
	return stageNames[s]
}

// Valid reports whether the stage is inside the dialog graph.
func (s Stage) Valid() bool { return s >= 0 && s < stageCount }

// Reservation is the record built by the reservation sub-flow.
type Reservation struct {
	Restaurant string `json:"restaurant"`
	People     int    `json:"people"`
	Time       string `json:"time"`
	Allergies  string `json:"allergies"`
	Name       string `json:"name"`
}

// TurnResult reports what a processed turn did, for transports and tests.
type TurnResult struct {
	Response    string
	Understood  bool
	Stage       Stage
	Reservation *Reservation // set on the turn that completes a reservation
	Confirmed   bool         // set when the user asked to forward the reservation
}
