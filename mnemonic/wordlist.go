// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package mnemonic

// wordAdjectives and wordNouns together generate the 32*64 = 2048 word
// vocabulary addressed by an 11-bit chunk, one adjective-noun pair per
// value so every chunk maps to a distinct, readable word.
var wordAdjectives = [32]string{
	"amber", "ancient", "brave", "bright", "calm", "clever", "coral", "crimson",
	"dawn", "deep", "eager", "early", "ember", "fleet", "fresh", "gentle",
	"golden", "green", "hidden", "honest", "iron", "jolly", "keen", "lively",
	"lucky", "misty", "noble", "quiet", "quick", "rapid", "silent", "swift",
}

var wordNouns = [64]string{
	"anchor", "arrow", "badger", "banyan", "basin", "beacon", "birch", "bishop",
	"bramble", "brook", "canyon", "cedar", "cinder", "clover", "comet", "coral",
	"crane", "current", "delta", "ember", "falcon", "feather", "fjord", "forest",
	"garnet", "glacier", "granite", "harbor", "hazel", "heron", "holly", "ibis",
	"island", "jasper", "kestrel", "lagoon", "lantern", "lark", "lotus", "maple",
	"marsh", "meadow", "mesa", "oasis", "orchid", "otter", "paper", "pebble",
	"plume", "quartz", "raven", "reef", "ridge", "river", "saffron", "sparrow",
	"summit", "tundra", "valley", "violet", "walnut", "willow", "wren", "zephyr",
}

// englishWordsList is the 2048-entry vocabulary: englishWordsList[i] decodes
// the 11-bit value i.
var englishWordsList = buildEnglishWords()

func buildEnglishWords() []string {
	words := make([]string, 0, len(wordAdjectives)*len(wordNouns))
	for _, adj := range wordAdjectives {
		for _, noun := range wordNouns {
			words = append(words, adj+"-"+noun)
		}
	}
	return words
}
