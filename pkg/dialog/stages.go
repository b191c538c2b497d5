package dialog

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Stage prompts. The texts double as the replayed prompt in the retry
// policy, so each one must stand alone as a question.
const (
	promptRating         = "What rating would you like the restaurant to have? (a number up to 5, or no preference)"
	promptPrice          = "Perfect! What price range are you looking for? (e.g., $, $$, $$$)"
	promptAmbiance       = "What ambiance are you looking for? (e.g., cozy, formal, casual)"
	promptWifi           = "Would you need a place with wifi? (yes/no)"
	promptAccessibility  = "Do you require wheelchair accessibility? (yes/no)"
	promptDietary        = "Do you require vegan/vegetarian options? (vegan/vegetarian/no preference)"
	promptSeating        = "Do you prefer indoor seating, outdoor seating, both or no preference?"
	promptBarLounge      = "Would you prefer if the place had a bar or a lounge? (bar/lounge/no preference/neither)"
	promptEntertainment  = "Would you prefer a place with some entertainment? (live music/football/no preference/neither)"
	promptPayment        = "Do you have a preference on payment methods? (e.g. card/cash/crypto, or no preference)"
	promptView           = "Is there a certain view during dining you would like to have? (e.g. sea, city, garden)"
	promptSustainability = "Do you have any specific sustainability ratings? (A/B/C, or no preference)"
	promptDish           = "Is there a certain dish you would like to try? (yes/no)"
	promptDishName       = "Please enter the name of the dish you would like to try."
	promptExtra          = "Are there any additional requirements that are important for you to find out? (parking / catering / dog friendly / kid friendly) Please answer with yes or no; the requirement itself comes in the next question."
	promptExtraName      = "Please enter the requirement that needs to be satisfied."
	promptPartySize      = "Excellent! How many people is the reservation for?"
	promptTime           = "Great! What time today would you like to make the reservation for? (24-hour format, e.g., 18:30)"
	promptAllergies      = "Got it! Do you have any allergies or dietary restrictions we should be aware of?"
	promptGuestName      = "Thank you! Can I have your name for the reservation?"
	promptSearchAgain    = "Would you like to search for an alternative restaurant? (yes/no)"

	hintPartySize = "Please specify a valid number of people for the reservation."
	hintTime      = "Please use the 24-hour HH:MM format, e.g., 18:30."
	hintYesNo     = "Please respond with yes or no."
)

// allowedExtras is the fixed allow-list for named extra requirements.
var allowedExtras = map[string]struct{}{
	"parking":      {},
	"catering":     {},
	"kid_friendly": {},
	"dog_friendly": {},
}

var titleCaser = cases.Title(language.English)

// CuisinePrompt builds the opening question from the catalog's cuisines.
func CuisinePrompt(index *UniqueValues) string {
	names := make([]string, 0, len(index.Cuisines))
	for _, c := range index.Cuisines {
		names = append(names, titleCaser.String(c))
	}
	if len(names) == 0 {
		return "Which cuisine would you like to have?"
	}
	return "Which cuisine would you like to have? (" + strings.Join(names, ", ") + ")"
}

// WelcomeMessage is the initial system message sent on connect.
func WelcomeMessage(index *UniqueValues) string {
	return "Welcome! I am a restaurant suggestion bot. I can give you advice and make reservations for restaurants in town. Firstly, " +
		lowerFirst(CuisinePrompt(index)) +
		" At any point in this conversation you can type 'main menu' to start over."
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// turnContext carries the per-message derived values handed to each stage.
type turnContext struct {
	raw     string
	norm    string
	tokens  []string
	intent  string
	index   *UniqueValues
	catalog []Restaurant
}

// stageResult is what a stage handler produced. An empty result means the
// input was not understood and the retry policy takes over; a result with
// understood=false but a response is a targeted hint.
type stageResult struct {
	response   string
	understood bool

	// reservation is set when a completed reservation should be persisted,
	// confirmed when the user asked for it to be sent to the restaurant.
	reservation *Reservation
	confirmed   bool
}

func notUnderstood() stageResult      { return stageResult{} }
func hint(msg string) stageResult     { return stageResult{response: msg} }
func answered(msg string) stageResult { return stageResult{response: msg, understood: true} }

type stageFunc func(s *Session, t *turnContext) stageResult

var stageHandlers = [stageCount]stageFunc{
	StageCuisine:        handleCuisine,
	StageRating:         handleRating,
	StagePrice:          handlePrice,
	StageAmbiance:       handleAmbiance,
	StageWifi:           handleWifi,
	StageAccessibility:  handleAccessibility,
	StageDietary:        handleDietary,
	StageSeating:        handleSeating,
	StageBarLounge:      handleBarLounge,
	StageEntertainment:  handleEntertainment,
	StagePayment:        handlePayment,
	StageView:           handleView,
	StageSustainability: handleSustainability,
	StageDishPrompt:     handleDishPrompt,
	StageDishName:       handleDishName,
	StageExtraPrompt:    handleExtraPrompt,
	StageExtraName:      handleExtraName,
	StageExtraValue:     handleExtraValue,
	StageConfirm:        handleConfirm,
	StageRelax:          handleRelax,
	StageReserveOffer:   handleReserveOffer,
	StageSearchAgain:    handleSearchAgain,
	StagePartySize:      handlePartySize,
	StageTime:           handleTime,
	StageAllergies:      handleAllergies,
	StageGuestName:      handleGuestName,
	StageSendConfirm:    handleSendConfirm,
}

// stageAnswered reports whether the criteria field a questionnaire stage
// collects has already been answered. Cleared and unset fields both count
// as open, which is what drives the relax loop's re-ask behavior.
func stageAnswered(c *Criteria, st Stage) bool {
	switch st {
	case StageCuisine:
		return c.Cuisines.Answered()
	case StageRating:
		return c.Rating.Answered()
	case StagePrice:
		return c.PriceRange.Answered()
	case StageAmbiance:
		return c.Ambiance.Answered()
	case StageWifi:
		return c.Wifi.Answered()
	case StageAccessibility:
		return c.Wheelchair.Answered()
	case StageDietary:
		return c.Vegan.Answered() || c.Vegetarian.Answered()
	case StageSeating:
		return c.IndoorSeating.Answered() || c.OutdoorSeating.Answered()
	case StageBarLounge:
		return c.Bar.Answered() || c.Lounge.Answered()
	case StageEntertainment:
		return c.LiveMusic.Answered() || c.Football.Answered()
	case StagePayment:
		return c.Payment.Answered()
	case StageView:
		return c.View.Answered()
	case StageSustainability:
		return c.Sustainability.Answered()
	case StageDishPrompt:
		return c.Dishes.Answered()
	}
	return false
}

// nextUnanswered walks the questionnaire from the given stage and returns
// the first stage still needing an answer, or StageExtraPrompt when the
// questionnaire is complete.
func nextUnanswered(c *Criteria, from Stage) Stage {
	for st := from; st <= StageDishPrompt; st++ {
		if !stageAnswered(c, st) {
			return st
		}
	}
	return StageExtraPrompt
}

// promptFor returns the question asked on entering a stage.
func promptFor(st Stage, s *Session, t *turnContext) string {
	switch st {
	case StageCuisine:
		return CuisinePrompt(t.index)
	case StageRating:
		return promptRating
	case StagePrice:
		return promptPrice
	case StageAmbiance:
		return promptAmbiance
	case StageWifi:
		return promptWifi
	case StageAccessibility:
		return promptAccessibility
	case StageDietary:
		return promptDietary
	case StageSeating:
		return promptSeating
	case StageBarLounge:
		return promptBarLounge
	case StageEntertainment:
		return promptEntertainment
	case StagePayment:
		return promptPayment
	case StageView:
		return promptView
	case StageSustainability:
		return promptSustainability
	case StageDishPrompt:
		return promptDish
	case StageDishName:
		return promptDishName
	case StageExtraPrompt:
		return promptExtra
	case StageExtraName:
		return promptExtraName
	case StageExtraValue:
		if s.PendingExtra != "" {
			return extraValuePrompt(s.PendingExtra)
		}
	case StageConfirm:
		return confirmPrompt(s.Criteria)
	case StageReserveOffer:
		return reserveOfferPrompt(s.Choices)
	case StagePartySize:
		return promptPartySize
	case StageTime:
		return promptTime
	case StageAllergies:
		return promptAllergies
	case StageGuestName:
		return promptGuestName
	case StageSearchAgain:
		return promptSearchAgain
	}
	return ""
}

func extraValuePrompt(name string) string {
	return "Would you like a place with " + strings.ReplaceAll(name, "_", " ") + "? (yes/no)"
}

func reserveOfferPrompt(choices []Restaurant) string {
	names := make([]string, 0, len(choices))
	for _, r := range choices {
		names = append(names, r.Name)
	}
	return "Here is a list of restaurants that meet your criteria: " +
		strings.Join(names, ", ") +
		". Would you like to proceed with a reservation with one of them? (yes/no)"
}

func confirmPrompt(c *Criteria) string {
	return "Sounds good! Here is a list of the specified requirements: " +
		c.Summary() + ". Did I get everything right? (yes/no)"
}

// advance moves the session to the next open questionnaire stage and
// returns its prompt, prefixed by an acknowledgement. Already-answered
// stages are skipped, which keeps the relax loop from re-collecting
// answers the user has not cleared.
func advance(s *Session, from Stage, ack string, t *turnContext) stageResult {
	next := nextUnanswered(s.Criteria, from)
	s.Stage = next
	prompt := promptFor(next, s, t)
	if ack != "" {
		prompt = ack + " " + prompt
	}
	return answered(prompt)
}

func handleCuisine(s *Session, t *turnContext) stageResult {
	cuisines := IntersectTokens(t.tokens, t.index.Cuisines)
	if len(cuisines) == 0 {
		return notUnderstood()
	}
	s.Criteria.Cuisines.Set(cuisines)
	return advance(s, StageRating, "", t)
}

func handleRating(s *Session, t *turnContext) stageResult {
	if len(t.tokens) > 0 {
		if r, err := strconv.ParseFloat(t.tokens[0], 64); err == nil {
			if r > 0 && r <= 5 {
				s.Criteria.Rating.Set(r)
				return advance(s, StagePrice, "", t)
			}
			return hint("Please give a rating above 0 and up to 5, or say no preference.")
		}
	}
	if t.intent == "no_preference" {
		s.Criteria.Rating.Skip()
		return advance(s, StagePrice, "No problem!", t)
	}
	return notUnderstood()
}

func handlePrice(s *Session, t *turnContext) stageResult {
	switch t.intent {
	case "$", "$$", "$$$":
		s.Criteria.PriceRange.Set(t.intent)
		return advance(s, StageAmbiance, "", t)
	case "no_preference":
		s.Criteria.PriceRange.Skip()
		return advance(s, StageAmbiance, "No problem!", t)
	}
	return notUnderstood()
}

// Ambiance is a soft stage: any non-empty answer advances, the criterion
// is only set when recognized tokens matched.
func handleAmbiance(s *Session, t *turnContext) stageResult {
	amb := IntersectTokens(t.tokens, t.index.Ambiance)
	if len(amb) > 0 {
		s.Criteria.Ambiance.Set(amb)
	} else {
		s.Criteria.Ambiance.Skip()
	}
	return advance(s, StageWifi, "We can make that happen!", t)
}

func handleWifi(s *Session, t *turnContext) stageResult {
	switch t.intent {
	case "yes", "no":
		s.Criteria.Wifi.Set(t.intent == "yes")
	case "no_preference":
		s.Criteria.Wifi.Skip()
	default:
		return notUnderstood()
	}
	return advance(s, StageAccessibility, "Got it!", t)
}

func handleAccessibility(s *Session, t *turnContext) stageResult {
	switch t.intent {
	case "yes", "no":
		s.Criteria.Wheelchair.Set(t.intent == "yes")
	case "no_preference":
		s.Criteria.Wheelchair.Skip()
	default:
		return notUnderstood()
	}
	return advance(s, StageDietary, "Got it!", t)
}

func handleDietary(s *Session, t *turnContext) stageResult {
	switch t.intent {
	case "vegan":
		s.Criteria.Vegan.Set(true)
		s.Criteria.Vegetarian.Set(true)
	case "vegetarian":
		s.Criteria.Vegan.Set(false)
		s.Criteria.Vegetarian.Set(true)
	case "no_preference":
		s.Criteria.Vegan.Skip()
		s.Criteria.Vegetarian.Skip()
	default:
		return notUnderstood()
	}
	return advance(s, StageSeating, "Got it!", t)
}

func handleSeating(s *Session, t *turnContext) stageResult {
	switch t.intent {
	case "indoor", "outdoor", "both":
		s.Criteria.IndoorSeating.Set(t.intent == "indoor" || t.intent == "both")
		s.Criteria.OutdoorSeating.Set(t.intent == "outdoor" || t.intent == "both")
	case "no_preference":
		s.Criteria.IndoorSeating.Skip()
		s.Criteria.OutdoorSeating.Skip()
	default:
		return notUnderstood()
	}
	return advance(s, StageBarLounge, "Noted!", t)
}

func handleBarLounge(s *Session, t *turnContext) stageResult {
	switch t.intent {
	case "bar":
		s.Criteria.Bar.Set(true)
		s.Criteria.Lounge.Set(false)
	case "lounge":
		// A lounge implies a bar in the catalog's model.
		s.Criteria.Bar.Set(true)
		s.Criteria.Lounge.Set(true)
	case "no":
		s.Criteria.Bar.Set(false)
		s.Criteria.Lounge.Set(false)
	case "no_preference":
		s.Criteria.Bar.Skip()
		s.Criteria.Lounge.Skip()
	default:
		return notUnderstood()
	}
	return advance(s, StageEntertainment, "Sounds good!", t)
}

func handleEntertainment(s *Session, t *turnContext) stageResult {
	switch t.intent {
	case "live_music":
		s.Criteria.LiveMusic.Set(true)
		s.Criteria.Football.Set(false)
	case "football":
		s.Criteria.LiveMusic.Set(false)
		s.Criteria.Football.Set(true)
	case "no":
		s.Criteria.LiveMusic.Set(false)
		s.Criteria.Football.Set(false)
	case "no_preference":
		s.Criteria.LiveMusic.Skip()
		s.Criteria.Football.Skip()
	default:
		return notUnderstood()
	}
	return advance(s, StagePayment, "Sounds good!", t)
}

// Payment is a soft stage like ambiance.
func handlePayment(s *Session, t *turnContext) stageResult {
	pay := IntersectTokens(t.tokens, t.index.Payment)
	if len(pay) > 0 {
		s.Criteria.Payment.Set(pay)
	} else {
		s.Criteria.Payment.Skip()
	}
	return advance(s, StageView, "Sounds good!", t)
}

// View is a soft stage like ambiance.
func handleView(s *Session, t *turnContext) stageResult {
	view := IntersectTokens(t.tokens, t.index.View)
	if len(view) > 0 {
		s.Criteria.View.Set(view)
	} else {
		s.Criteria.View.Skip()
	}
	return advance(s, StageSustainability, "Sounds good!", t)
}

func handleSustainability(s *Session, t *turnContext) stageResult {
	for _, known := range t.index.Sustainability {
		if t.norm == known {
			s.Criteria.Sustainability.Set(known)
			return advance(s, StageDishPrompt, "Great!", t)
		}
	}
	if t.intent == "no_preference" {
		s.Criteria.Sustainability.Skip()
		return advance(s, StageDishPrompt, "No problem!", t)
	}
	return notUnderstood()
}

func handleDishPrompt(s *Session, t *turnContext) stageResult {
	switch t.intent {
	case "yes":
		s.Stage = StageDishName
		return answered(promptDishName)
	case "no":
		s.Criteria.Dishes.Skip()
		s.Stage = StageExtraPrompt
		return answered("No worries. " + promptExtra)
	}
	return notUnderstood()
}

func handleDishName(s *Session, t *turnContext) stageResult {
	matched := ContainedValues(t.norm, t.index.Dishes)
	if len(matched) > 0 {
		s.Criteria.Dishes.Set(matched)
	} else {
		// Keep the wish verbatim; it just will not match any catalog entry.
		s.Criteria.Dishes.Set([]string{t.norm})
	}
	s.Stage = StageExtraPrompt
	return answered("Sounds good! " + promptExtra)
}

func handleExtraPrompt(s *Session, t *turnContext) stageResult {
	switch t.intent {
	case "yes":
		s.Stage = StageExtraName
		return answered(promptExtraName)
	case "no":
		s.Stage = StageConfirm
		return answered(confirmPrompt(s.Criteria))
	}
	return hint(hintYesNo)
}

func handleExtraName(s *Session, t *turnContext) stageResult {
	if _, ok := allowedExtras[t.intent]; ok {
		s.PendingExtra = t.intent
		s.Stage = StageExtraValue
		return answered(extraValuePrompt(t.intent))
	}
	s.Stage = StageExtraPrompt
	return answered("Unfortunately we cannot check for that requirement at this time. " + promptExtra)
}

func handleExtraValue(s *Session, t *turnContext) stageResult {
	switch t.intent {
	case "yes", "no":
		if s.PendingExtra != "" {
			s.Criteria.SetExtra(s.PendingExtra, t.intent == "yes")
			s.PendingExtra = ""
		}
		s.Stage = StageExtraPrompt
		return answered("Noted! " + promptExtra)
	}
	return hint(hintYesNo)
}

func handleConfirm(s *Session, t *turnContext) stageResult {
	switch t.intent {
	case "yes":
		matched := Match(s.Criteria, t.catalog)
		all := make([]Restaurant, 0, len(matched)+len(s.PrevChoices))
		all = append(all, matched...)
		all = append(all, s.PrevChoices...)
		if len(all) == 0 {
			s.Stage = StageRelax
			return answered("It looks like there are no restaurants that meet your requirements at this time. Please tell me which criterion you would like to change.")
		}
		s.Choices = all
		s.Stage = StageReserveOffer
		return answered("No problem. " + reserveOfferPrompt(all))
	case "no":
		s.Stage = StageRelax
		return answered("Please tell me which criterion you would like to change.")
	}
	return notUnderstood()
}

func handleRelax(s *Session, t *turnContext) stageResult {
	if _, ok := s.Criteria.ClearByName(t.norm); ok {
		next := nextUnanswered(s.Criteria, StageCuisine)
		s.Stage = next
		return answered("Sure thing, let's revisit that. " + promptFor(next, s, t))
	}
	names := s.Criteria.AnsweredNames()
	if len(names) == 0 {
		s.Stage = StageCuisine
		return answered("There is nothing set to change yet. " + CuisinePrompt(t.index))
	}
	return hint("That doesn't look like one of your current criteria. You can change: " +
		strings.Join(names, ", ") + ".")
}

func handleReserveOffer(s *Session, t *turnContext) stageResult {
	switch t.intent {
	case "yes":
		s.Stage = StagePartySize
		return answered(promptPartySize)
	case "no":
		s.Stage = StageSearchAgain
		return answered("No problem. " + promptSearchAgain)
	}
	return notUnderstood()
}

// SearchAgain is a soft stage: anything other than an explicit yes ends
// the cycle with a goodbye reset.
func handleSearchAgain(s *Session, t *turnContext) stageResult {
	if t.intent == "yes" {
		s.PrevChoices = s.Choices
		s.Choices = nil
		s.Criteria = NewCriteria()
		s.Pending = Reservation{Allergies: "none"}
		s.Stage = StageCuisine
		return answered("Okay, let's find another spot. " + CuisinePrompt(t.index))
	}
	s.resetAll()
	return answered("Bye! If you have any other questions, just ask. " + CuisinePrompt(t.index))
}

func handlePartySize(s *Session, t *turnContext) stageResult {
	if len(t.tokens) > 0 {
		if n, err := strconv.Atoi(t.tokens[0]); err == nil && n > 0 {
			s.Pending.People = n
			s.Stage = StageTime
			return answered(promptTime)
		}
	}
	return hint(hintPartySize)
}

func handleTime(s *Session, t *turnContext) stageResult {
	if len(s.Choices) == 0 {
		s.Stage = StageConfirm
		return answered("Let's double-check your requirements first. " + confirmPrompt(s.Criteria))
	}
	if !ValidTime(t.norm) {
		return hint(hintTime)
	}
	restaurant := s.Choices[0]
	if !WithinOpeningHours(t.norm, restaurant.OpeningHours) {
		return hint("Sorry, please enter a time within the opening hours (" +
			restaurant.OpeningHours + "), or say 'go back' to change the reservation details.")
	}
	s.Pending.Time = t.norm
	s.Stage = StageAllergies
	return answered(promptAllergies)
}

func handleAllergies(s *Session, t *turnContext) stageResult {
	switch {
	case t.norm == "" || t.norm == "no" || t.norm == "none":
		s.Pending.Allergies = "none"
	default:
		s.Pending.Allergies = t.norm
	}
	s.Stage = StageGuestName
	return answered(promptGuestName)
}

func handleGuestName(s *Session, t *turnContext) stageResult {
	s.Pending.Name = strings.TrimSpace(t.raw)
	if len(s.Choices) > 0 {
		s.Pending.Restaurant = s.Choices[0].Name
	}
	s.Stage = StageSendConfirm
	resv := s.Pending
	res := answered("Excellent! Your reservation information is stored. Details: Name: " +
		s.Pending.Name + ", Number of people: " + strconv.Itoa(s.Pending.People) +
		", Time: " + s.Pending.Time + ", Allergies: " + s.Pending.Allergies +
		". Would you like to send the reservation to the restaurant to confirm it? (yes/no)")
	res.reservation = &resv
	return res
}

func handleSendConfirm(s *Session, t *turnContext) stageResult {
	switch t.intent {
	case "yes":
		s.Stage = StageSearchAgain
		res := answered("Your reservation request has been sent to the restaurant. " + promptSearchAgain)
		res.confirmed = true
		return res
	case "bye", "no":
		s.resetAll()
		return answered("Bye! If you have any other questions, just ask. " + CuisinePrompt(t.index))
	}
	return notUnderstood()
}
