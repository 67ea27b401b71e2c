package domain

// DefaultSymbols is the stock 59-figure alphabet, enough for the standard
// 8-symbols-per-card deck (57 symbols) with two spares.
var DefaultSymbols = []Symbol{
	"Anchor", "Apple", "Bomb", "Cactus", "Candle", "Carrot",
	"Cheese", "Chess-Knight", "Clock", "Clown", "Daisy-Flower", "Dinosaur",
	"Dolphin", "Dragon", "Exclamation-Mark", "Eye", "Fire", "Four-Leaf-Clover",
	"Ghost", "Green-Splats", "Hammer", "Heart", "Ice-Cube", "Igloo", "Key",
	"Ladybug", "Light-Bulb", "Lightning-Bolt", "Lock", "Maple-Leaf", "Milk-Bottle",
	"Moon", "No-Entry-Sign", "Scarecrow-Man", "Pencil", "Purple-Bird",
	"Cat", "Dobbly-Hand", "Question-Mark", "Red-Lips", "Scissors",
	"Skull-and-Bones", "Snowflake", "Snowman", "Spider", "Spider-Web",
	"Sun", "Sunglasses", "Target", "Taxi", "Tortoise", "Treble-Clef", "Tree",
	"Water-Drop", "Dog", "Yin-Yang", "Zebra", "Pig", "Bear",
}
