package main

const flashSessionKey = "flash"
const lastGameSessionKey = "lastGameID"
