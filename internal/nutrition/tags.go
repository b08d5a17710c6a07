package nutrition

import (
	"sort"
	"strings"
)

// tagKeywords assigns ingredient tags from words in the ingredient name or provider category.
var tagKeywords = map[string][]string{
	"beef":       {TagMeat},
	"veal":       {TagMeat},
	"lamb":       {TagMeat},
	"mutton":     {TagMeat},
	"venison":    {TagMeat},
	"goat":       {TagMeat},
	"meat":       {TagMeat},
	"meats":      {TagMeat},
	"steak":      {TagMeat},
	"pork":       {TagMeat, TagPork},
	"bacon":      {TagMeat, TagPork},
	"ham":        {TagMeat, TagPork},
	"sausage":    {TagMeat, TagPork},
	"prosciutto": {TagMeat, TagPork},
	"chorizo":    {TagMeat, TagPork},
	"chicken":    {TagPoultry},
	"turkey":     {TagPoultry},
	"duck":       {TagPoultry},
	"poultry":    {TagPoultry},
	"fish":       {TagFish},
	"salmon":     {TagFish},
	"tuna":       {TagFish},
	"cod":        {TagFish},
	"anchovy":    {TagFish},
	"anchovies":  {TagFish},
	"sardine":    {TagFish},
	"sardines":   {TagFish},
	"shrimp":     {TagShellfish},
	"prawn":      {TagShellfish},
	"prawns":     {TagShellfish},
	"crab":       {TagShellfish},
	"lobster":    {TagShellfish},
	"mussel":     {TagShellfish},
	"mussels":    {TagShellfish},
	"clam":       {TagShellfish},
	"clams":      {TagShellfish},
	"oyster":     {TagShellfish},
	"squid":      {TagShellfish},
	"shellfish":  {TagShellfish},
	"milk":       {TagDairy},
	"cheese":     {TagDairy},
	"butter":     {TagDairy},
	"cream":      {TagDairy},
	"yogurt":     {TagDairy},
	"yoghurt":    {TagDairy},
	"dairy":      {TagDairy},
	"egg":        {TagEgg},
	"eggs":       {TagEgg},
	"honey":      {TagHoney},
	"wheat":      {TagGluten, TagGrain, TagHighCarb},
	"flour":      {TagGluten, TagGrain, TagHighCarb},
	"bread":      {TagGluten, TagGrain, TagHighCarb},
	"pasta":      {TagGluten, TagGrain, TagHighCarb},
	"spaghetti":  {TagGluten, TagGrain, TagHighCarb},
	"noodles":    {TagGluten, TagGrain, TagHighCarb},
	"barley":     {TagGluten, TagGrain},
	"rye":        {TagGluten, TagGrain},
	"rice":       {TagGrain, TagHighCarb},
	"oats":       {TagGrain},
	"corn":       {TagGrain, TagHighCarb},
	"quinoa":     {TagGrain},
	"potato":     {TagHighCarb},
	"potatoes":   {TagHighCarb},
	"sugar":      {TagHighCarb},
	"bean":       {TagLegume},
	"beans":      {TagLegume},
	"lentil":     {TagLegume},
	"lentils":    {TagLegume},
	"chickpea":   {TagLegume},
	"chickpeas":  {TagLegume},
	"peas":       {TagLegume},
	"peanut":     {TagLegume},
	"peanuts":    {TagLegume},
	"tofu":       {TagLegume},
	"soy":        {TagLegume},
	"wine":       {TagAlcohol},
	"beer":       {TagAlcohol},
	"rum":        {TagAlcohol},
	"vodka":      {TagAlcohol},
}

// allergenKeywords assigns allergens from words in the ingredient name when the provider did
// not report them.
var allergenKeywords = map[string][]string{
	"milk":       {AllergenMilk},
	"cheese":     {AllergenMilk},
	"butter":     {AllergenMilk},
	"cream":      {AllergenMilk},
	"yogurt":     {AllergenMilk},
	"yoghurt":    {AllergenMilk},
	"egg":        {AllergenEggs},
	"eggs":       {AllergenEggs},
	"peanut":     {AllergenPeanuts},
	"peanuts":    {AllergenPeanuts},
	"nuts":       {AllergenPeanuts, AllergenTreeNuts},
	"almond":     {AllergenTreeNuts},
	"almonds":    {AllergenTreeNuts},
	"walnut":     {AllergenTreeNuts},
	"walnuts":    {AllergenTreeNuts},
	"cashew":     {AllergenTreeNuts},
	"cashews":    {AllergenTreeNuts},
	"hazelnut":   {AllergenTreeNuts},
	"hazelnuts":  {AllergenTreeNuts},
	"pecan":      {AllergenTreeNuts},
	"pecans":     {AllergenTreeNuts},
	"pistachio":  {AllergenTreeNuts},
	"pistachios": {AllergenTreeNuts},
	"fish":       {AllergenFish},
	"salmon":     {AllergenFish},
	"tuna":       {AllergenFish},
	"cod":        {AllergenFish},
	"anchovy":    {AllergenFish},
	"anchovies":  {AllergenFish},
	"shrimp":     {AllergenCrustaceans},
	"prawn":      {AllergenCrustaceans},
	"prawns":     {AllergenCrustaceans},
	"crab":       {AllergenCrustaceans},
	"lobster":    {AllergenCrustaceans},
	"mussel":     {AllergenMolluscs},
	"mussels":    {AllergenMolluscs},
	"clam":       {AllergenMolluscs},
	"clams":      {AllergenMolluscs},
	"oyster":     {AllergenMolluscs},
	"squid":      {AllergenMolluscs},
	"wheat":      {AllergenWheat, AllergenGluten},
	"flour":      {AllergenWheat, AllergenGluten},
	"bread":      {AllergenWheat, AllergenGluten},
	"pasta":      {AllergenWheat, AllergenGluten},
	"spaghetti":  {AllergenWheat, AllergenGluten},
	"barley":     {AllergenGluten},
	"rye":        {AllergenGluten},
	"soy":        {AllergenSoy},
	"tofu":       {AllergenSoy},
	"sesame":     {AllergenSesame},
	"tahini":     {AllergenSesame},
	"mustard":    {AllergenMustard},
	"celery":     {AllergenCelery},
	"lupin":      {AllergenLupin},
	"wine":       {AllergenSulphites},
}

// phrase is a multi-word name whose meaning differs from its words, such as plant milks.
type phrase struct {
	tags      []string
	allergens []string
}

// phraseOverrides are matched before the single-word tables; matched words are not looked up
// again.
var phraseOverrides = map[string]phrase{
	"coconut milk":    {},
	"coconut cream":   {},
	"coconut yogurt":  {},
	"cocoa butter":    {},
	"shea butter":     {},
	"cream of tartar": {},
	"vegan butter":    {},
	"vegan cheese":    {},
	"almond milk":     {allergens: []string{AllergenTreeNuts}},
	"almond butter":   {allergens: []string{AllergenTreeNuts}},
	"cashew milk":     {allergens: []string{AllergenTreeNuts}},
	"cashew cream":    {allergens: []string{AllergenTreeNuts}},
	"oat milk":        {tags: []string{TagGrain}},
	"rice milk":       {tags: []string{TagGrain, TagHighCarb}},
	"soy milk":        {tags: []string{TagLegume}, allergens: []string{AllergenSoy}},
	"soy yogurt":      {tags: []string{TagLegume}, allergens: []string{AllergenSoy}},
	"peanut butter":   {tags: []string{TagLegume}, allergens: []string{AllergenPeanuts}},
}

var maxPhraseWords = func() int {
	n := 0
	for p := range phraseOverrides {
		n = max(n, len(strings.Fields(p)))
	}
	return n
}()

// matchPhrase reports the override starting at words[0], preferring the longest match.
func matchPhrase(words []string) (phrase, int, bool) {
	for n := min(maxPhraseWords, len(words)); n >= 2; n-- {
		if p, ok := phraseOverrides[strings.Join(words[:n], " ")]; ok {
			return p, n, true
		}
	}
	return phrase{}, 0, false
}

func keywordLookup(table map[string][]string, pick func(phrase) []string, texts ...string) []string {
	set := make(map[string]struct{})
	for _, text := range texts {
		words := strings.Fields(NormalizeName(text))
		for i := 0; i < len(words); {
			if p, n, ok := matchPhrase(words[i:]); ok {
				for _, v := range pick(p) {
					set[v] = struct{}{}
				}
				i += n
				continue
			}
			for _, v := range table[words[i]] {
				set[v] = struct{}{}
			}
			i++
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// InferTags returns the dietary tags implied by the ingredient name and provider category.
func InferTags(name, category string) []string {
	return keywordLookup(tagKeywords, func(p phrase) []string { return p.tags }, name, category)
}

// InferAllergens returns the allergens implied by the ingredient name.
func InferAllergens(name string) []string {
	return keywordLookup(allergenKeywords, func(p phrase) []string { return p.allergens }, name)
}
