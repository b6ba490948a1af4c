package nlp

var GroupWith = groupWith
