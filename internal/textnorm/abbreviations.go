package textnorm

// abbreviations maps cleaned single tokens to their expansion. No expansion
// may contain a token that is itself a key, which keeps Normalize idempotent.
var abbreviations = map[string]string{
	"ch":     "chateau",
	"chat":   "chateau",
	"chx":    "chateaux",
	"dom":    "domaine",
	"dne":    "domaine",
	"rsv":    "reserve",
	"res":    "reserve",
	"resv":   "reserve",
	"rsrv":   "reserve",
	"nv":     "non-vintage",
	"st":     "saint",
	"ste":    "sainte",
	"mt":     "mount",
	"vyd":    "vineyard",
	"vnyd":   "vineyard",
	"vyds":   "vineyards",
	"cab":    "cabernet",
	"cs":     "cabernet sauvignon",
	"sauv":   "sauvignon",
	"sb":     "sauvignon blanc",
	"pn":     "pinot noir",
	"pg":     "pinot grigio",
	"chard":  "chardonnay",
	"zin":    "zinfandel",
	"syr":    "syrah",
	"tempr":  "tempranillo",
	"gewurz": "gewurztraminer",
	"riesl":  "riesling",
	"malb":   "malbec",
	"bdx":    "bordeaux",
	"brgy":   "burgundy",
	"bourg":  "bourgogne",
	"cdp":    "chateauneuf-du-pape",
	"cdr":    "cotes du rhone",
	"gc":     "grand cru",
	"pc":     "premier cru",
	"1er":    "premier",
	"vv":     "vieilles vignes",
}
